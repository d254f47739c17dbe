package synth

import (
	"context"
	"io"
	"net/http"
	"strings"
	"testing"

	"emperror.dev/errors"
	"github.com/jarcoal/httpmock"
)

const testAddr = "http://synth.test"

const speakersBody = `[
	{"name": "四国めたん", "styles": [{"name": "あまあま", "id": 0}, {"name": "ノーマル", "id": 2}]},
	{"name": "ずんだもん", "styles": [{"name": "ノーマル", "id": 3}]}
]`

func activateMock(t *testing.T) {
	confSynthAddr.LoadedValue = testAddr

	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)
	t.Cleanup(func() { engineCache.Delete("engines") })
}

func TestEngines(t *testing.T) {
	activateMock(t)
	httpmock.RegisterResponder("GET", testAddr+"/speakers",
		httpmock.NewStringResponder(200, speakersBody))

	engines, err := Engines(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(engines) != 3 {
		t.Fatalf("got %d engines, expected 3", len(engines))
	}

	// sorted by style id across speakers
	ids := []int{engines[0].ID, engines[1].ID, engines[2].ID}
	if ids[0] != 0 || ids[1] != 2 || ids[2] != 3 {
		t.Errorf("engine ids were %v", ids)
	}

	if got := engines[0].String(); got != "[0] 四国めたん (あまあま)" {
		t.Errorf("engine label was %q", got)
	}
	if got := engines[2].String(); got != "[3] ずんだもん (ノーマル)" {
		t.Errorf("engine label was %q", got)
	}
}

func TestEnginesCached(t *testing.T) {
	activateMock(t)

	calls := 0
	httpmock.RegisterResponder("GET", testAddr+"/speakers", func(*http.Request) (*http.Response, error) {
		calls++
		return httpmock.NewStringResponse(200, speakersBody), nil
	})

	for i := 0; i < 3; i++ {
		if _, err := Engines(context.Background()); err != nil {
			t.Fatal(err)
		}
	}

	if calls != 1 {
		t.Errorf("speakers endpoint was hit %d times, expected 1", calls)
	}
}

func TestSynthesize(t *testing.T) {
	activateMock(t)

	queryBody := `{"accent_phrases": [], "speedScale": 1.0, "kana": "コンニチワ'"}`
	wavBody := "RIFF....WAVEfmt "

	httpmock.RegisterResponder("POST", testAddr+"/audio_query", func(req *http.Request) (*http.Response, error) {
		params := req.URL.Query()
		if params.Get("speaker") != "3" || params.Get("text") != "こんにちは" {
			t.Errorf("audio query params were %v", params)
		}

		return httpmock.NewStringResponse(200, queryBody), nil
	})

	httpmock.RegisterResponder("POST", testAddr+"/synthesis", func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("speaker") != "3" {
			t.Errorf("synthesis params were %v", req.URL.Query())
		}

		// the query JSON has to round-trip to the engine untouched
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		if string(body) != queryBody {
			t.Errorf("synthesis body was %q", body)
		}

		return httpmock.NewStringResponse(200, wavBody), nil
	})

	wav, kana, err := Synthesize(context.Background(), 3, "こんにちは")
	if err != nil {
		t.Fatal(err)
	}

	if kana != "コンニチワ'" {
		t.Errorf("kana was %q", kana)
	}
	if string(wav) != wavBody {
		t.Errorf("wav was %q", wav)
	}
}

func TestSynthesizeDisabled(t *testing.T) {
	confSynthAddr.LoadedValue = ""

	_, _, err := Synthesize(context.Background(), 1, "test")
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, expected ErrDisabled", err)
	}

	if _, err := Engines(context.Background()); !errors.Is(err, ErrDisabled) {
		t.Errorf("got %v, expected ErrDisabled", err)
	}
}

func TestFindEngine(t *testing.T) {
	engines := []Engine{{ID: 0}, {ID: 2}, {ID: 3}}

	if found := findEngine(engines, 2); found == nil || found.ID != 2 {
		t.Errorf("got %v looking for engine 2", found)
	}
	if found := findEngine(engines, 9); found != nil {
		t.Errorf("got %v looking for a missing engine", found)
	}
}

func TestSynthErrorResponse(t *testing.T) {
	response, err := synthErrorResponse(ErrDisabled)
	if err != nil || response != "Speech synthesis is not set up here." {
		t.Errorf("got %v, %v for the disabled error", response, err)
	}

	boom := errors.NewPlain("boom")
	response, err = synthErrorResponse(boom)
	if response != nil || !errors.Is(err, boom) {
		t.Errorf("got %v, %v for an engine error", response, err)
	}
}

func TestVoiceEmbeds(t *testing.T) {
	if embeds := voiceEmbeds(nil); embeds != nil {
		t.Errorf("got %d embeds for no lines", len(embeds))
	}

	short := voiceEmbeds([]string{"[0] a (b)", "[1] c (d)"})
	if len(short) != 1 {
		t.Fatalf("got %d embeds, expected 1", len(short))
	}
	if short[0].Description != "[0] a (b)\n[1] c (d)" {
		t.Errorf("description was %q", short[0].Description)
	}

	var long []string
	for i := 0; i < 25; i++ {
		long = append(long, strings.Repeat("x", 200))
	}

	paged := voiceEmbeds(long)
	if len(paged) != 2 {
		t.Fatalf("got %d embeds for 5000 chars of lines, expected 2", len(paged))
	}
	for i, embed := range paged {
		if len(embed.Description) > 4000 {
			t.Errorf("embed %d description is %d chars", i, len(embed.Description))
		}
	}
}
