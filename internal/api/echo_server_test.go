package api

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v5"
	"github.com/samcharles93/twix/internal/convert"
	"github.com/samcharles93/twix/internal/logger"
	"github.com/samcharles93/twix/internal/md"
	"github.com/samcharles93/twix/pkg/cfl"
	"github.com/samcharles93/twix/pkg/twix"
	"github.com/samcharles93/twix/pkg/twix/twixtest"
)

func newTestEcho(t *testing.T) (*echo.Echo, *Server, string) {
	t.Helper()
	dir := t.TempDir()
	server := NewServer(dir, NewConversionStore(), logger.Discard())
	e := echo.New()
	server.Register(e)
	return e, server, dir
}

func doJSON(t *testing.T, e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return out
}

func writeDat(t *testing.T, dir, name string, f twixtest.File) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), f.Bytes(), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func twoLineFile(read int) twixtest.File {
	return twixtest.File{
		Version: twix.VB,
		Records: []twixtest.Record{
			twixtest.NewRecord(0, read, 1, map[int]uint16{twix.LCLine: 0}),
			twixtest.NewRecord(1, read, 1, map[int]uint16{twix.LCLine: 1}),
		},
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	e, _, dir := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("health status: got %d", rec.Code)
	}
	got := decodeBody[HealthResponse](t, rec)
	if got.Status != "ok" || got.DataDir != dir || got.Version == "" {
		t.Fatalf("unexpected health response %+v", got)
	}
}

func TestCreateGetListConversion(t *testing.T) {
	t.Parallel()

	e, _, dir := newTestEcho(t)
	writeDat(t, dir, "meas.dat", twoLineFile(4))

	body := `{"input":"meas.dat","output":"kspace","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1}}`
	createRec := doJSON(t, e, http.MethodPost, "/v1/conversions", body)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status: got %d body=%s", createRec.Code, createRec.Body.String())
	}
	created := decodeBody[Conversion](t, createRec)
	if !strings.HasPrefix(created.ID, "conv_") || created.Status != StatusCompleted {
		t.Fatalf("unexpected conversion %+v", created)
	}
	if created.Records != 2 || created.ADCs != 2 || created.Layout != "VB" {
		t.Fatalf("unexpected conversion stats %+v", created)
	}

	arr, err := cfl.Load(filepath.Join(dir, "kspace"))
	if err != nil {
		t.Fatalf("load output: %v", err)
	}
	var pos md.Dims
	pos[md.Phs1Dim] = 1
	if got, want := arr.At(pos), twixtest.SampleValue(1, 0, 0); got != want {
		t.Fatalf("phase1 1 sample 0: got %v want %v", got, want)
	}

	getRec := doJSON(t, e, http.MethodGet, "/v1/conversions/"+created.ID, "")
	if getRec.Code != http.StatusOK {
		t.Fatalf("get status: got %d", getRec.Code)
	}
	if got := decodeBody[Conversion](t, getRec); got.ID != created.ID || got.Output != "kspace" {
		t.Fatalf("unexpected stored conversion %+v", got)
	}

	listRec := doJSON(t, e, http.MethodGet, "/v1/conversions", "")
	list := decodeBody[ConversionList](t, listRec)
	if list.Object != "list" || len(list.Data) != 1 || list.Data[0].ID != created.ID {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestCreateConversionFormatError(t *testing.T) {
	t.Parallel()

	e, server, dir := newTestEcho(t)
	writeDat(t, dir, "meas.dat", twoLineFile(6))

	body := `{"input":"meas.dat","output":"kspace","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1}}`
	rec := doJSON(t, e, http.MethodPost, "/v1/conversions", body)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error        ErrorBody `json:"error"`
		ConversionID string    `json:"conversion_id"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Type != errTypeFormat || resp.ConversionID == "" {
		t.Fatalf("unexpected error response %+v", resp)
	}

	stored, ok := server.store.Get(resp.ConversionID)
	if !ok || stored.Status != StatusFailed || stored.Error == nil {
		t.Fatalf("failed conversion not recorded: %+v", stored)
	}
	if _, err := os.Stat(filepath.Join(dir, "kspace"+cfl.DataExt)); !os.IsNotExist(err) {
		t.Fatalf("partial output left behind: %v", err)
	}
}

func TestCreateConversionBadRequests(t *testing.T) {
	t.Parallel()

	e, _, dir := newTestEcho(t)
	writeDat(t, dir, "meas.dat", twoLineFile(4))

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{"input":`, http.StatusBadRequest},
		{"unknown field", `{"input":"meas.dat","output":"o","bogus":1}`, http.StatusBadRequest},
		{"escaping input", `{"input":"../meas.dat","output":"o","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1}}`, http.StatusBadRequest},
		{"absolute output", `{"input":"meas.dat","output":"/tmp/o","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1}}`, http.StatusBadRequest},
		{"missing output", `{"input":"meas.dat","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1}}`, http.StatusBadRequest},
		{"zero extent", `{"input":"meas.dat","output":"o","dims":{"read":0}}`, http.StatusBadRequest},
		{"overflowing dims", `{"input":"meas.dat","output":"o","dims":{"read":4,"phase1":4294967296,"phase2":4294967296}}`, http.StatusBadRequest},
		{"negative adcs", `{"input":"meas.dat","output":"o","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1},"adcs":-1}`, http.StatusBadRequest},
		{"missing input", `{"input":"none.dat","output":"o","dims":{"read":4,"phase1":2,"phase2":1,"slices":1,"coils":1}}`, http.StatusNotFound},
	}
	for _, tc := range tests {
		rec := doJSON(t, e, http.MethodPost, "/v1/conversions", tc.body)
		if rec.Code != tc.status {
			t.Errorf("%s: status got %d want %d body=%s", tc.name, rec.Code, tc.status, rec.Body.String())
		}
	}
}

func TestGetUnknownConversion(t *testing.T) {
	t.Parallel()

	e, _, _ := newTestEcho(t)
	rec := doJSON(t, e, http.MethodGet, "/v1/conversions/conv_missing", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), errTypeNotFound) {
		t.Fatalf("expected not found error type, got %s", rec.Body.String())
	}
}

func TestInspectFile(t *testing.T) {
	t.Parallel()

	e, _, dir := newTestEcho(t)
	writeDat(t, dir, "meas.dat", twoLineFile(4))

	rec := doJSON(t, e, http.MethodGet, "/v1/files/meas.dat", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	rep := decodeBody[convert.Report](t, rec)
	want := convert.Extents{Read: 4, Phase1: 2, Phase2: 1, Slices: 1, Coils: 1}
	if rep.Layout != "VB" || len(rep.Records) != 2 || rep.Suggested != want {
		t.Fatalf("unexpected report %+v", rep)
	}

	rec = doJSON(t, e, http.MethodGet, "/v1/files/meas.dat?limit=1", "")
	if got := decodeBody[convert.Report](t, rec); len(got.Records) != 1 {
		t.Fatalf("limit=1 returned %d records", len(got.Records))
	}

	for path, status := range map[string]int{
		"/v1/files/meas.dat?limit=x": http.StatusBadRequest,
		"/v1/files/absent.dat":       http.StatusNotFound,
		"/v1/files/..":               http.StatusBadRequest,
	} {
		if rec := doJSON(t, e, http.MethodGet, path, ""); rec.Code != status {
			t.Errorf("%s: status got %d want %d", path, rec.Code, status)
		}
	}
}

func TestServerUsesInjectedConverter(t *testing.T) {
	t.Parallel()

	e, server, _ := newTestEcho(t)
	var got convert.Options
	server.convert = func(ctx context.Context, input, output string, opts convert.Options) (convert.Stats, error) {
		got = opts
		return convert.Stats{Layout: twix.LayoutVD, Records: opts.RecordCount()}, nil
	}

	body := `{"input":"a.dat","output":"b","dims":{"read":8,"phase1":4,"phase2":2,"slices":3,"coils":2},"adcs":5}`
	rec := doJSON(t, e, http.MethodPost, "/v1/conversions", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got.ADCs != 5 || got.Dims != twixtest.Dims(8, 4, 2, 3, 2) {
		t.Fatalf("unexpected options %+v", got)
	}
	if conv := decodeBody[Conversion](t, rec); conv.Layout != "VD" || conv.Records != 5 {
		t.Fatalf("unexpected conversion %+v", conv)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		err    error
		status int
	}{
		{newInvalidRequest("bad"), http.StatusBadRequest},
		{os.ErrNotExist, http.StatusNotFound},
		{fmt.Errorf("open input: %w", os.ErrNotExist), http.StatusNotFound},
		{fmt.Errorf("record 3 of 8: %w", twix.ErrFormat), http.StatusUnprocessableEntity},
		{fmt.Errorf("twix: read scan header: %w", io.ErrUnexpectedEOF), http.StatusUnprocessableEntity},
		{context.Canceled, http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if status, _ := classify(tc.err); status != tc.status {
			t.Errorf("classify(%v) = %d, want %d", tc.err, status, tc.status)
		}
	}
}

func TestCreateConversionDefaultsOmittedExtents(t *testing.T) {
	t.Parallel()

	e, server, dir := newTestEcho(t)
	writeDat(t, dir, "meas.dat", twoLineFile(4))

	var got convert.Options
	server.convert = func(ctx context.Context, input, output string, opts convert.Options) (convert.Stats, error) {
		got = opts
		return convert.File(ctx, input, output, opts)
	}

	rec := doJSON(t, e, http.MethodPost, "/v1/conversions", `{"input":"meas.dat","output":"kspace","dims":{"read":4,"phase1":2}}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status: got %d body=%s", rec.Code, rec.Body.String())
	}
	if got.Dims != twixtest.Dims(4, 2, 1, 1, 1) {
		t.Fatalf("omitted extents should default to 1, got %v", got.Dims)
	}
	conv := decodeBody[Conversion](t, rec)
	want := convert.Extents{Read: 4, Phase1: 2, Phase2: 1, Slices: 1, Coils: 1}
	if conv.Dims != want || conv.Records != 2 {
		t.Fatalf("unexpected conversion %+v", conv)
	}

	rec = doJSON(t, e, http.MethodPost, "/v1/conversions", `{"input":"meas.dat","output":"flat"}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("singleton dims against 4-sample records: got %d body=%s", rec.Code, rec.Body.String())
	}
}
