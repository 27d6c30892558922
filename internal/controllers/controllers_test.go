package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bluetecnologia/status_admin/internal/catalog"
	"github.com/bluetecnologia/status_admin/internal/form"
	"github.com/bluetecnologia/status_admin/internal/gateway"
	"github.com/bluetecnologia/status_admin/internal/middleware"
	"github.com/bluetecnologia/status_admin/internal/models"
	"github.com/bluetecnologia/status_admin/internal/session"
	"github.com/bluetecnologia/status_admin/internal/views"
)

type memGateway struct {
	mu      sync.Mutex
	records map[uint]models.ServiceRecord
	next    uint
	saveErr error
	listErr error
}

func newMemGateway(seed ...models.ServiceRecord) *memGateway {
	g := &memGateway{records: make(map[uint]models.ServiceRecord)}
	for _, rec := range seed {
		g.next++
		rec.ID = g.next
		g.records[rec.ID] = rec
	}
	return g
}

func (g *memGateway) Create(_ context.Context, rec models.ServiceRecord) (models.ServiceRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return models.ServiceRecord{}, &gateway.Error{Op: gateway.OpCreate, Err: g.saveErr}
	}
	g.next++
	rec.ID = g.next
	g.records[rec.ID] = rec
	return rec, nil
}

func (g *memGateway) UpdateByID(_ context.Context, id uint, rec models.ServiceRecord) (models.ServiceRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return models.ServiceRecord{}, &gateway.Error{Op: gateway.OpUpdate, Err: g.saveErr}
	}
	if _, ok := g.records[id]; !ok {
		return models.ServiceRecord{}, &gateway.Error{Op: gateway.OpUpdate, Err: gateway.ErrNotFound}
	}
	rec.ID = id
	g.records[id] = rec
	return rec, nil
}

func (g *memGateway) List(context.Context) ([]models.ServiceRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.listErr != nil {
		return nil, &gateway.Error{Op: gateway.OpList, Err: g.listErr}
	}
	out := make([]models.ServiceRecord, 0, len(g.records))
	for _, rec := range g.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *memGateway) FindByID(_ context.Context, id uint) (models.ServiceRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[id]
	if !ok {
		return models.ServiceRecord{}, &gateway.Error{Op: gateway.OpFindByID, Err: gateway.ErrNotFound}
	}
	return rec, nil
}

func (g *memGateway) get(id uint) (models.ServiceRecord, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.records[id]
	return rec, ok
}

func newEngine(gw gateway.Gateway) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cat := catalog.MustDefault()
	logger := zap.NewNop()
	sessions := session.NewRegistry(form.Deps{
		Gateway: gw,
		Schema:  form.NewSchema(cat),
		Logger:  logger,
	})

	sc := &ServiceController{Gateway: gw, Logger: logger}
	mc := &ModalController{Gateway: gw, Logger: logger}
	cc := &CatalogController{Catalog: cat}

	r := gin.New()
	r.SetHTMLTemplate(views.Templates())
	ui := r.Group("", middleware.UISession(sessions))
	ui.GET("/", sc.Index)
	ui.POST("/services", sc.Submit)
	ui.POST("/modal/open", mc.Open)
	ui.POST("/modal/close", mc.Close)
	ui.GET("/api/v1/modal", mc.State)
	ui.POST("/api/v1/modal/open", mc.OpenJSON)
	ui.POST("/api/v1/modal/close", mc.CloseJSON)
	ui.GET("/api/v1/catalog", cc.List)
	return r
}

// browser keeps the UI session cookie between requests.
type browser struct {
	t      *testing.T
	r      *gin.Engine
	cookie *http.Cookie
}

func (b *browser) do(req *http.Request) *httptest.ResponseRecorder {
	b.t.Helper()
	if b.cookie != nil {
		req.AddCookie(b.cookie)
	}
	w := httptest.NewRecorder()
	b.r.ServeHTTP(w, req)
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookie {
			b.cookie = c
		}
	}
	return w
}

func (b *browser) get(path string) *httptest.ResponseRecorder {
	return b.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (b *browser) postForm(path string, values url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) postJSON(path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return b.do(req)
}

func expectRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	if w.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303; body=%s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func seeded() *memGateway {
	return newMemGateway(
		models.ServiceRecord{Name: models.ReservedServiceName, Status: "Operacional"},
		models.ServiceRecord{Name: "Sistema Eproc", Status: "Instável"},
	)
}

func TestIndexRendersListing(t *testing.T) {
	b := &browser{t: t, r: newEngine(seeded())}

	w := b.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{views.Title, "Sistema Eproc", `data-testid="edit-2"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if strings.Contains(body, `data-testid="edit-1"`) {
		t.Error("reserved record offers an edit button")
	}
	if strings.Contains(body, `data-testid="service-modal"`) {
		t.Error("modal rendered while closed")
	}
	if b.cookie == nil {
		t.Error("no session cookie issued")
	}
}

func TestIndexListFailure(t *testing.T) {
	gw := seeded()
	gw.listErr = errors.New("connection refused")
	b := &browser{t: t, r: newEngine(gw)}

	w := b.get("/")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), listFailedMessage) {
		t.Error("list failure not reported inline")
	}
}

func TestCreateFlow(t *testing.T) {
	gw := seeded()
	b := &browser{t: t, r: newEngine(gw)}

	expectRedirect(t, b.postForm("/modal/open", url.Values{"type": {"createService"}}), "/")

	body := b.get("/").Body.String()
	for _, want := range []string{`data-testid="service-modal"`, "Cadastro de serviço", "Descrição do serviço", "Selecione", "Fora do ar"} {
		if !strings.Contains(body, want) {
			t.Errorf("open modal missing %q", want)
		}
	}

	w := b.postForm("/services", url.Values{"name": {"Portal"}, "status": {"Operacional"}})
	expectRedirect(t, w, "/")

	rec, ok := gw.get(3)
	if !ok || rec.Name != "Portal" || rec.Status != "Operacional" {
		t.Fatalf("created record = %+v, %v", rec, ok)
	}
	if strings.Contains(b.get("/").Body.String(), `data-testid="service-modal"`) {
		t.Error("modal still open after save")
	}
}

func TestEditFlow(t *testing.T) {
	gw := seeded()
	b := &browser{t: t, r: newEngine(gw)}

	expectRedirect(t, b.postForm("/modal/open", url.Values{"type": {"createService"}, "id": {"2"}}), "/")
	body := b.get("/").Body.String()
	if !strings.Contains(body, `value="Sistema Eproc"`) {
		t.Error("name field not seeded from the record")
	}

	w := b.postForm("/services", url.Values{"name": {"Sistema Eproc"}, "status": {"Fora do ar"}})
	expectRedirect(t, w, "/")

	rec, _ := gw.get(2)
	if rec.Status != "Fora do ar" {
		t.Errorf("status = %q, want Fora do ar", rec.Status)
	}
	if _, ok := gw.get(3); ok {
		t.Error("edit created a new record")
	}
}

func TestSubmitInvalid(t *testing.T) {
	gw := seeded()
	b := &browser{t: t, r: newEngine(gw)}
	b.postForm("/modal/open", url.Values{"type": {"createService"}})

	w := b.postForm("/services", url.Values{"name": {"general"}, "status": {"Desconhecido"}})
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", w.Code)
	}
	body := w.Body.String()
	for _, want := range []string{"Serviço não pode ser", "Status inválido, selecione uma opção da lista", `data-testid="service-modal"`} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
	if _, ok := gw.get(3); ok {
		t.Error("invalid submission reached the gateway")
	}
}

func TestSubmitGatewayFailure(t *testing.T) {
	gw := seeded()
	gw.saveErr = errors.New("store unavailable")
	b := &browser{t: t, r: newEngine(gw)}
	b.postForm("/modal/open", url.Values{"type": {"createService"}})

	w := b.postForm("/services", url.Values{"name": {"Portal"}, "status": {"Operacional"}})
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, form.GatewayFailedMessage) {
		t.Error("gateway failure message missing")
	}
	if !strings.Contains(body, `value="Portal"`) {
		t.Error("entered values not kept")
	}
}

func TestSubmitWithoutModal(t *testing.T) {
	gw := seeded()
	b := &browser{t: t, r: newEngine(gw)}

	expectRedirect(t, b.postForm("/services", url.Values{"name": {"Portal"}, "status": {"Operacional"}}), "/")
	if _, ok := gw.get(3); ok {
		t.Error("submission without an open modal reached the gateway")
	}
}

func TestCloseDiscardsInput(t *testing.T) {
	b := &browser{t: t, r: newEngine(seeded())}
	b.postForm("/modal/open", url.Values{"type": {"createService"}})
	b.postForm("/services", url.Values{"name": {""}, "status": {""}})

	expectRedirect(t, b.postForm("/modal/close", nil), "/")
	if strings.Contains(b.get("/").Body.String(), `data-testid="service-modal"`) {
		t.Error("modal still open after close")
	}
}

func TestOpenRejects(t *testing.T) {
	tests := []struct {
		name   string
		values url.Values
		want   int
	}{
		{name: "unknown type", values: url.Values{"type": {"deleteService"}}, want: http.StatusBadRequest},
		{name: "bad id", values: url.Values{"type": {"createService"}, "id": {"abc"}}, want: http.StatusBadRequest},
		{name: "zero id", values: url.Values{"type": {"createService"}, "id": {"0"}}, want: http.StatusBadRequest},
		{name: "missing record", values: url.Values{"type": {"createService"}, "id": {"99"}}, want: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &browser{t: t, r: newEngine(seeded())}
			if w := b.postForm("/modal/open", tt.values); w.Code != tt.want {
				t.Errorf("status = %d, want %d", w.Code, tt.want)
			}
		})
	}
}

type modalBody struct {
	IsOpen bool    `json:"isOpen"`
	Type   *string `json:"type"`
	Data   struct {
		Server *models.ServiceRecord `json:"server"`
	} `json:"data"`
}

func decodeModal(t *testing.T, w *httptest.ResponseRecorder) modalBody {
	t.Helper()
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", w.Code, w.Body.String())
	}
	var out modalBody
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func TestModalAPI(t *testing.T) {
	b := &browser{t: t, r: newEngine(seeded())}

	st := decodeModal(t, b.get("/api/v1/modal"))
	if st.IsOpen || st.Type != nil || st.Data.Server != nil {
		t.Fatalf("initial state = %+v", st)
	}

	st = decodeModal(t, b.postJSON("/api/v1/modal/open", `{"type":"createService","server":{"id":2,"name":"Sistema Eproc","status":"Instável"}}`))
	if !st.IsOpen || st.Type == nil || *st.Type != "createService" {
		t.Fatalf("open state = %+v", st)
	}
	if st.Data.Server == nil || st.Data.Server.ID != 2 {
		t.Fatalf("payload = %+v", st.Data.Server)
	}
	if !strings.Contains(b.get("/").Body.String(), `value="Sistema Eproc"`) {
		t.Error("page does not show the modal opened through the API")
	}

	st = decodeModal(t, b.postJSON("/api/v1/modal/close", ""))
	if st.IsOpen || st.Type != nil {
		t.Fatalf("closed state = %+v", st)
	}
}

func TestModalAPIRejects(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing type", body: `{}`},
		{name: "unknown type", body: `{"type":"deleteService"}`},
		{name: "server without id", body: `{"type":"createService","server":{"name":"x","status":"Operacional"}}`},
		{name: "malformed", body: `{"type":`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := &browser{t: t, r: newEngine(seeded())}
			if w := b.postJSON("/api/v1/modal/open", tt.body); w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestCatalogList(t *testing.T) {
	b := &browser{t: t, r: newEngine(seeded())}

	w := b.get("/api/v1/catalog")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var out struct {
		Data []models.StatusEntry `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Data) != len(catalog.Defaults) || out.Data[0].Description != "Operacional" {
		t.Errorf("catalog = %+v", out.Data)
	}
}
