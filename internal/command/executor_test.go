package command

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Vandanarajput/PosAPP/internal/printer"
	"github.com/Vandanarajput/PosAPP/internal/profiles"
	"github.com/Vandanarajput/PosAPP/internal/transport"
	"github.com/Vandanarajput/PosAPP/pkg/logging"
)

const receiptJSON = `{"data":[{"type":"header","data":{"top_title":"Cafe"}}]}`

type nopPrinter struct{}

func (nopPrinter) Kind() transport.Kind                           { return transport.KindNetwork }
func (nopPrinter) Init() error                                    { return nil }
func (nopPrinter) Connect(ctx context.Context, addr string) error { return nil }
func (nopPrinter) Disconnect() error                              { return nil }

func (nopPrinter) PrintText(ctx context.Context, text string, opts transport.TextOptions) error {
	return nil
}

func (nopPrinter) PrintImageBase64(ctx context.Context, data string, opts transport.ImageOptions) error {
	return nil
}

func newExecutor(t *testing.T) (*Executor, *printer.Manager) {
	t.Helper()
	factory := func(kind transport.Kind) (transport.Transport, error) {
		return nopPrinter{}, nil
	}
	m := printer.NewManager(printer.Config{
		Store:    profiles.NewMemoryStore(),
		Sessions: transport.NewSessions(factory, 0, logging.Discard()),
		Legacy:   printer.Legacy{Kind: transport.KindNetwork, Address: "10.0.0.9:9100"},
		Logger:   logging.Discard(),
	})
	t.Cleanup(m.Close)
	return NewExecutor(m), m
}

func writeReceipt(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "receipt.json")
	if err := os.WriteFile(path, []byte(receiptJSON), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestParseCommand(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"", nil},
		{"   ", nil},
		{"help", []string{"help"}},
		{"profile add 10.0.0.5 9100", []string{"profile", "add", "10.0.0.5", "9100"}},
		{`print "/tmp/my receipt.json"`, []string{"print", "/tmp/my receipt.json"}},
		{`profile add h 9100 576 1 'Front Bar'`, []string{"profile", "add", "h", "9100", "576", "1", "Front Bar"}},
		{`label ""`, []string{"label", ""}},
		{"job\t status  abc", []string{"job", "status", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseCommand(tt.input); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseCommand(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestExecute_Errors(t *testing.T) {
	e, _ := newExecutor(t)
	ctx := context.Background()

	tests := []struct {
		cmd  string
		want string
	}{
		{"", "empty command"},
		{"frobnicate", "unknown command"},
		{"print", "usage: print"},
		{"print /does/not/exist.json", "failed to load receipt"},
		{"preview a.json", "usage: preview"},
		{"profile", "usage: profile"},
		{"profile add", "usage: profile add"},
		{"profile add host notaport", "invalid number"},
		{"profile remove nope", "profile not found"},
		{"profile rename x", "unknown profile subcommand"},
		{"routing maybe", "usage: routing"},
		{"job", "usage: job"},
		{"job status missing", "job not found"},
		{"connect network", "usage: connect"},
		{"connect pigeon somewhere", "pigeon"},
	}

	for _, tt := range tests {
		t.Run(tt.cmd, func(t *testing.T) {
			res := e.Execute(ctx, tt.cmd)
			if res.Success {
				t.Fatalf("Expected %q to fail", tt.cmd)
			}
			if !strings.Contains(res.Error, tt.want) {
				t.Errorf("Error = %q, want it to contain %q", res.Error, tt.want)
			}
		})
	}
}

func TestExecute_Profiles(t *testing.T) {
	e, m := newExecutor(t)
	ctx := context.Background()

	res := e.Execute(ctx, "profile add 10.0.0.5 9100 384 2 Front Bar")
	if !res.Success {
		t.Fatalf("add failed: %s", res.Error)
	}
	p := res.Data["profile"].(profiles.Profile)
	if p.Label != "Front Bar" || p.PaperWidth != profiles.Width58mm || p.Copies != 2 {
		t.Errorf("Unexpected profile %+v", p)
	}

	if res := e.Execute(ctx, "profile disable "+p.ID); !res.Success {
		t.Fatalf("disable failed: %s", res.Error)
	}
	got, err := profiles.Get(ctx, m.Store(), p.ID)
	if err != nil || got.Enabled {
		t.Fatalf("Expected disabled profile, got %+v (%v)", got, err)
	}

	res = e.Execute(ctx, "profile list")
	if list := res.Data["profiles"].([]profiles.Profile); len(list) != 1 {
		t.Errorf("Expected 1 profile, got %d", len(list))
	}

	if res := e.Execute(ctx, "profile remove "+p.ID); !res.Success {
		t.Fatalf("remove failed: %s", res.Error)
	}
	if list, _ := m.Store().List(ctx); len(list) != 0 {
		t.Errorf("Expected empty store, got %v", list)
	}
}

func TestExecute_Routing(t *testing.T) {
	e, m := newExecutor(t)
	ctx := context.Background()

	if res := e.Execute(ctx, "routing"); res.Data["enabled"] != false {
		t.Errorf("Expected routing off by default, got %v", res.Data)
	}
	if res := e.Execute(ctx, "routing on"); !res.Success {
		t.Fatalf("routing on failed: %s", res.Error)
	}
	if on, _ := m.Store().FeatureFlag(ctx); !on {
		t.Error("Expected flag to be stored")
	}
	if res := e.Execute(ctx, "routing status"); res.Message != "Routing is on" {
		t.Errorf("Unexpected status %q", res.Message)
	}
}

func TestExecute_PrintAndJobs(t *testing.T) {
	e, m := newExecutor(t)
	ctx := context.Background()

	res := e.Execute(ctx, "print "+writeReceipt(t))
	if !res.Success {
		t.Fatalf("print failed: %s", res.Error)
	}
	id := res.Data["job_id"].(string)

	waitCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if j, err := m.Queue().Wait(waitCtx, id); err != nil || j.Status != printer.StatusCompleted {
		t.Fatalf("Unexpected job %+v (%v)", j, err)
	}

	if res := e.Execute(ctx, "job status "+id); !strings.Contains(res.Message, "completed") {
		t.Errorf("Unexpected status message %q", res.Message)
	}
	if res := e.Execute(ctx, "job list"); len(res.Data["jobs"].([]printer.Job)) != 1 {
		t.Errorf("Expected one job, got %v", res.Data["jobs"])
	}
	if res := e.Execute(ctx, "job clear"); res.Data["cleared"] != 1 {
		t.Errorf("Expected one cleared job, got %v", res.Data)
	}
}

func TestExecute_PrintFromURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/order.json" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte(receiptJSON))
	}))
	defer srv.Close()

	e, _ := newExecutor(t)
	ctx := context.Background()

	if res := e.Execute(ctx, "print "+srv.URL+"/order.json"); !res.Success {
		t.Errorf("print from URL failed: %s", res.Error)
	}
	if res := e.Execute(ctx, "print "+srv.URL+"/missing.json"); res.Success || !strings.Contains(res.Error, "HTTP 404") {
		t.Errorf("Expected HTTP 404 error, got %+v", res)
	}
}

func TestExecute_Preview(t *testing.T) {
	e, _ := newExecutor(t)
	out := filepath.Join(t.TempDir(), "out.png")

	res := e.Execute(context.Background(), "preview "+writeReceipt(t)+" "+out+" 384")
	if !res.Success {
		t.Fatalf("preview failed: %s", res.Error)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "\x89PNG") {
		t.Error("Expected a PNG file")
	}
}

func TestExecute_Connection(t *testing.T) {
	e, m := newExecutor(t)
	ctx := context.Background()

	if res := e.Execute(ctx, "connect network 10.0.0.7"); !res.Success {
		t.Fatalf("connect failed: %s", res.Error)
	}
	if st := m.ConnectionStatus(); !st.Connected || st.Address != "10.0.0.7" {
		t.Errorf("Unexpected status %+v", st)
	}
	if res := e.Execute(ctx, "disconnect"); !res.Success {
		t.Fatalf("disconnect failed: %s", res.Error)
	}
	if m.ConnectionStatus().Connected {
		t.Error("Expected disconnected")
	}
}
