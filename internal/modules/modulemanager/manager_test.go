package modulemanager

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mantonx/cinecache/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recorder struct {
	events []string
}

func (r *recorder) add(e string) { r.events = append(r.events, e) }

type fakeModule struct {
	id       string
	core     bool
	deps     []string
	provides []string
	requires []string
	rec      *recorder
	initErr  error
}

func (m *fakeModule) ID() string                 { return m.id }
func (m *fakeModule) Name() string               { return m.id }
func (m *fakeModule) Core() bool                 { return m.core }
func (m *fakeModule) Migrate(db *gorm.DB) error  { m.rec.add("migrate:" + m.id); return nil }
func (m *fakeModule) Init() error                { m.rec.add("init:" + m.id); return m.initErr }
func (m *fakeModule) Dependencies() []string     { return m.deps }
func (m *fakeModule) ProvidedServices() []string { return m.provides }
func (m *fakeModule) RequiredServices() []string { return m.requires }

func (m *fakeModule) RegisterServices() error {
	m.rec.add("register:" + m.id)
	for _, name := range m.provides {
		services.RegisterService[string](name, m.id)
	}
	return nil
}

func (m *fakeModule) InjectServices(svcs map[string]interface{}) error {
	for _, name := range m.requires {
		if _, ok := svcs[name]; !ok {
			return errors.New("missing " + name)
		}
	}
	m.rec.add("inject:" + m.id)
	return nil
}

func (m *fakeModule) RegisterRoutes(api *gin.RouterGroup) {
	api.GET("/"+m.id, func(c *gin.Context) { c.String(http.StatusOK, m.id) })
}

func (m *fakeModule) HealthCheck(ctx context.Context) HealthStatus {
	return HealthStatus{Status: HealthStateHealthy}
}

func (m *fakeModule) Shutdown(ctx context.Context) error {
	m.rec.add("shutdown:" + m.id)
	return nil
}

func TestLoadAllRunsPhasesInDependencyOrder(t *testing.T) {
	services.ResetForTesting()
	defer services.ResetForTesting()

	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(&fakeModule{id: "users", requires: []string{"movies"}, rec: rec})
	reg.Register(&fakeModule{id: "movies", deps: []string{"catalog"}, provides: []string{"movies"}, rec: rec})
	reg.Register(&fakeModule{id: "catalog", core: true, rec: rec})

	require.NoError(t, reg.LoadAll(nil, nil))

	assert.Equal(t, []string{
		"register:catalog", "register:movies", "register:users",
		"inject:catalog", "inject:movies", "inject:users",
		"migrate:catalog", "init:catalog",
		"migrate:movies", "init:movies",
		"migrate:users", "init:users",
	}, rec.events)

	rec.events = nil
	require.NoError(t, reg.Shutdown(context.Background()))
	assert.Equal(t, []string{"shutdown:users", "shutdown:movies", "shutdown:catalog"}, rec.events)

	health := reg.HealthCheck(context.Background())
	assert.Len(t, health, 3)
	assert.Equal(t, HealthStateHealthy, health["movies"].Status)
}

func TestLoadAllSkipsDisabledModules(t *testing.T) {
	services.ResetForTesting()
	rec := &recorder{}
	reg := NewRegistry()
	reg.Register(&fakeModule{id: "catalog", core: true, rec: rec})
	reg.Register(&fakeModule{id: "search", rec: rec})

	require.NoError(t, reg.LoadAll(nil, []string{"search"}))
	assert.NotContains(t, rec.events, "init:search")

	gin.SetMode(gin.TestMode)
	router := gin.New()
	reg.RegisterRoutes(router.Group("/api"))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/catalog", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/search", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoadAllRejectsDisablingCoreModule(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeModule{id: "catalog", core: true, rec: &recorder{}})

	err := reg.LoadAll(nil, []string{"catalog"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "core module")
}

func TestDependencyGraphDetectsCycles(t *testing.T) {
	rec := &recorder{}
	_, err := BuildDependencyGraph(map[string]Module{
		"a": &fakeModule{id: "a", deps: []string{"b"}, rec: rec},
		"b": &fakeModule{id: "b", deps: []string{"a"}, rec: rec},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "circular dependency")
}

func TestDependencyGraphMissingDependency(t *testing.T) {
	_, err := BuildDependencyGraph(map[string]Module{
		"a": &fakeModule{id: "a", deps: []string{"ghost"}, rec: &recorder{}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-existent module ghost")
}

func TestInitErrorStopsLoading(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&fakeModule{id: "broken", rec: &recorder{}, initErr: errors.New("boom")})

	err := reg.LoadAll(nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}
