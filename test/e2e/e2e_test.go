//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/stemsi/classpoints-backend/internal/model"
)

const (
	defaultBaseURL = "http://localhost:8080"
	className      = "E2E 五甲"
)

var (
	baseURL string
	apiURL  string
	backup  []byte
	classID string
)

func TestMain(m *testing.M) {
	// Load .env if present (ignore error)
	_ = godotenv.Load("../../.env")

	baseURL = os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiURL = baseURL + "/api/v1"

	// 1. Wait for the server and keep a copy of the current roster.
	if err := waitHealthy(30 * time.Second); err != nil {
		fmt.Printf("Server not ready: %v\n", err)
		os.Exit(1)
	}
	resp, err := request(http.MethodGet, "/export", nil)
	if err != nil || resp.StatusCode != http.StatusOK {
		fmt.Printf("Backup export failed: %v\n", err)
		os.Exit(1)
	}
	backup, _ = io.ReadAll(resp.Body)
	resp.Body.Close()

	// 2. Run Tests
	code := m.Run()

	// 3. Restore the roster the server had before.
	if resp, err := request(http.MethodPost, "/import", backup); err == nil {
		resp.Body.Close()
	}
	os.Exit(code)
}

func waitHealthy(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		resp, err := http.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("health check timed out: %v", err)
		}
		time.Sleep(500 * time.Millisecond)
	}
}

func TestE2EFlow(t *testing.T) {
	var students []model.Student

	// Step 1: Create a class from pasted names
	t.Run("CreateClass", func(t *testing.T) {
		resp := mustDo(t, http.MethodPost, "/classes", map[string]string{
			"name":   className,
			"roster": "陳大文\n\nAmy Wong\n  Ben Lee  \n",
		}, http.StatusCreated)

		var body struct {
			Data struct {
				Class model.ClassData `json:"class"`
			} `json:"data"`
		}
		decodeJSON(t, resp, &body)
		classID = body.Data.Class.ID
		students = body.Data.Class.Students
		if len(students) != 3 {
			t.Fatalf("expected 3 students, got %d", len(students))
		}
		if students[2].Name != "Ben Lee" || students[2].StudentNumber != 3 {
			t.Fatalf("unexpected third student: %+v", students[2])
		}
	})

	// Step 2: The new class is the selected one
	t.Run("SessionSelectsNewClass", func(t *testing.T) {
		view := getSession(t)
		if view.SelectedClassID != classID {
			t.Fatalf("selected %q, want %q", view.SelectedClassID, classID)
		}
	})

	// Step 3: Stream sees score updates
	t.Run("ApplyBehaviorIsStreamed", func(t *testing.T) {
		wsURL := "ws" + strings.TrimPrefix(baseURL, "http") + "/ws/v1/stream"
		conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
		if err != nil {
			t.Fatalf("dial: %v", err)
		}
		defer conn.Close()
		_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))

		var hello struct {
			Event string `json:"event"`
		}
		if err := conn.ReadJSON(&hello); err != nil || hello.Event != "hello" {
			t.Fatalf("expected hello, got %+v (%v)", hello, err)
		}

		mustDo(t, http.MethodPost, studentPath(students[0].ID, "/behaviors"), map[string]interface{}{
			"label": "積極參與", "labelEn": "Active participation", "points": 2,
		}, http.StatusOK)

		for {
			var msg struct {
				Event string `json:"event"`
				Data  struct {
					Type string `json:"type"`
				} `json:"data"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("read stream: %v", err)
			}
			if msg.Data.Type == "score.updated" {
				break
			}
		}
	})

	// Step 4: Negative and manual points, counters track magnitudes
	t.Run("Counters", func(t *testing.T) {
		mustDo(t, http.MethodPost, studentPath(students[0].ID, "/manual"), map[string]int{"points": -5}, http.StatusOK)

		st := findStudent(t, students[0].ID)
		if st.TotalScore != -3 || st.PosCount != 2 || st.NegCount != 5 {
			t.Fatalf("unexpected totals: %+v", st)
		}
	})

	// Step 5: Feedback is showing and can be dismissed once
	t.Run("DismissFeedback", func(t *testing.T) {
		mustDo(t, http.MethodPost, studentPath(students[1].ID, "/manual"), map[string]int{"points": 1}, http.StatusOK)
		mustDo(t, http.MethodDelete, "/session/feedback", nil, http.StatusOK)
		mustDo(t, http.MethodDelete, "/session/feedback", nil, http.StatusNotFound)
	})

	// Step 6: Sort by score
	t.Run("SortScoreDesc", func(t *testing.T) {
		mustDo(t, http.MethodPut, "/session/sort", map[string]string{"sort": "SCORE_DESC"}, http.StatusOK)
		view := getSession(t)
		if view.Students[0].ID != students[1].ID || view.Students[2].ID != students[0].ID {
			t.Fatalf("unexpected order: %+v", view.Students)
		}
		mustDo(t, http.MethodPut, "/session/sort", map[string]string{"sort": "ID_ASC"}, http.StatusOK)
	})

	// Step 7: Random picker opens a winner
	t.Run("Picker", func(t *testing.T) {
		mustDo(t, http.MethodPost, "/picker/roll", nil, http.StatusAccepted)
		mustDo(t, http.MethodPost, "/picker/roll", nil, http.StatusConflict)

		time.Sleep(20*120*time.Millisecond + 800*time.Millisecond + 500*time.Millisecond)
		view := getSession(t)
		if view.ActiveStudent == nil {
			t.Fatal("picker did not open a student")
		}
		mustDo(t, http.MethodDelete, "/session/active-student", nil, http.StatusOK)
	})

	// Step 8: Export, broken import, import
	t.Run("ExportImport", func(t *testing.T) {
		resp := mustDo(t, http.MethodGet, "/export", nil, http.StatusOK)
		if cd := resp.Header.Get("Content-Disposition"); !strings.Contains(cd, "Miss_Iong_Class_Data_") {
			t.Fatalf("unexpected Content-Disposition %q", cd)
		}
		exported, _ := io.ReadAll(resp.Body)

		resp = mustDo(t, http.MethodPost, "/import", []byte("{broken"), http.StatusBadRequest)
		var body struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		decodeJSON(t, resp, &body)
		if body.Error.Code != "INVALID_SNAPSHOT" {
			t.Fatalf("unexpected error code %q", body.Error.Code)
		}

		mustDo(t, http.MethodPost, "/import", exported, http.StatusOK)
		if st := findStudent(t, students[0].ID); st.TotalScore != -3 {
			t.Fatalf("import lost totals: %+v", st)
		}
	})

	// Step 9: Delete needs confirmation
	t.Run("DeleteClass", func(t *testing.T) {
		path := "/classes/" + url.PathEscape(classID)
		mustDo(t, http.MethodDelete, path, nil, http.StatusConflict)
		mustDo(t, http.MethodDelete, path, map[string]bool{"confirm": true}, http.StatusOK)
		mustDo(t, http.MethodGet, path, nil, http.StatusNotFound)
	})
}

// Helpers

func studentPath(id, suffix string) string {
	return "/students/" + url.PathEscape(id) + suffix
}

func getSession(t *testing.T) model.SessionView {
	t.Helper()
	resp := mustDo(t, http.MethodGet, "/session", nil, http.StatusOK)
	var body struct {
		Data model.SessionView `json:"data"`
	}
	decodeJSON(t, resp, &body)
	return body.Data
}

func findStudent(t *testing.T, id string) model.Student {
	t.Helper()
	resp := mustDo(t, http.MethodGet, "/classes/"+url.PathEscape(classID), nil, http.StatusOK)
	var body struct {
		Data struct {
			Class model.ClassData `json:"class"`
		} `json:"data"`
	}
	decodeJSON(t, resp, &body)
	for _, s := range body.Data.Class.Students {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("student %s not found", id)
	return model.Student{}
}

func mustDo(t *testing.T, method, path string, body interface{}, want int) *http.Response {
	t.Helper()
	resp, err := request(method, path, body)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	if resp.StatusCode != want {
		t.Fatalf("%s %s: status %d, want %d: %s", method, path, resp.StatusCode, want, readBody(resp))
	}
	return resp
}

func request(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		bodyReader = bytes.NewReader(b)
	default:
		jsonBytes, _ := json.Marshal(b)
		bodyReader = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, apiURL+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if bodyReader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	client := &http.Client{Timeout: 10 * time.Second}
	return client.Do(req)
}

func readBody(resp *http.Response) string {
	b, _ := io.ReadAll(resp.Body)
	return string(b)
}

func decodeJSON(t *testing.T, resp *http.Response, v interface{}) {
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("json decode: %v", err)
	}
}
