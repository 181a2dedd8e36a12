package i18n

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateKorean(t *testing.T) {
	ctx := initLang(t, "ko")

	got := T(ctx, "AppTitle")
	if got != "화재사고 대응 시뮬레이션" {
		t.Errorf("T(AppTitle) = %q, want '화재사고 대응 시뮬레이션'", got)
	}

	got = T(ctx, "StartTraining")
	if got != "훈련 시작" {
		t.Errorf("T(StartTraining) = %q, want '훈련 시작'", got)
	}
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "Fire Incident Response Simulation" {
		t.Errorf("T(AppTitle) = %q, want 'Fire Incident Response Simulation'", got)
	}

	got = T(ctx, "StartTraining")
	if got != "Start training" {
		t.Errorf("T(StartTraining) = %q, want 'Start training'", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "NotesCount", 1)
	if got1 != "1 note" {
		t.Errorf("Tp(NotesCount, 1) = %q, want '1 note'", got1)
	}

	got5 := Tp(ctx, "NotesCount", 5)
	if got5 != "5 notes" {
		t.Errorf("Tp(NotesCount, 5) = %q, want '5 notes'", got5)
	}

	ko := initLang(t, "ko")
	if got := Tp(ko, "NotesCount", 1); got != "1개" {
		t.Errorf("Tp(NotesCount, 1) in ko = %q, want '1개'", got)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "validation.facts_min", map[string]any{"Count": 3})
	if got != "Select at least 3 facts." {
		t.Errorf("Td(validation.facts_min) = %q, want 'Select at least 3 facts.'", got)
	}

	got = Td(ctx, "TeamN", map[string]any{"Team": 4})
	if got != "Team 4" {
		t.Errorf("Td(TeamN, Team=4) = %q, want 'Team 4'", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackUsesDefaultLanguage(t *testing.T) {
	if err := Init("ko"); err != nil {
		t.Fatal(err)
	}
	got := T(context.Background(), "Logout")
	if got != "로그아웃" {
		t.Errorf("T(Logout) without localizer = %q, want '로그아웃'", got)
	}
}

func TestLocalesHaveSameKeys(t *testing.T) {
	load := func(name string) map[string]any {
		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		m := map[string]any{}
		if err := json.Unmarshal(data, &m); err != nil {
			t.Fatalf("parse %s: %v", name, err)
		}
		return m
	}
	ko, en := load("ko.json"), load("en.json")
	for k := range ko {
		if _, ok := en[k]; !ok {
			t.Errorf("en.json is missing %q", k)
		}
	}
	for k := range en {
		if _, ok := ko[k]; !ok {
			t.Errorf("ko.json is missing %q", k)
		}
	}
}

func TestMiddleware(t *testing.T) {
	if err := Init("ko"); err != nil {
		t.Fatal(err)
	}
	var got string
	h := Middleware("ko")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = T(r.Context(), "Logout")
	}))

	tests := []struct {
		name   string
		target string
		cookie string
		want   string
	}{
		{"default", "/", "", "로그아웃"},
		{"query", "/?lang=en", "", "Log out"},
		{"cookie", "/", "en", "Log out"},
		{"unsupported query", "/?lang=fr", "", "로그아웃"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.target, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LangCookie, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if got != tt.want {
				t.Errorf("T(Logout) = %q, want %q", got, tt.want)
			}
		})
	}
}
