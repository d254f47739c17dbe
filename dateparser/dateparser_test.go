package dateparser

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
)

const testAddr = "http://duckling.test"

func activateMock(t *testing.T, entriesByText map[string][]ducklingEntry) {
	confDucklingAddr.LoadedValue = testAddr

	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("POST", testAddr+"/parse", func(req *http.Request) (*http.Response, error) {
		if err := req.ParseForm(); err != nil {
			return httpmock.NewStringResponse(400, "bad form"), nil
		}

		entries, ok := entriesByText[req.PostForm.Get("text")]
		if !ok {
			entries = []ducklingEntry{}
		}

		body, err := json.Marshal(entries)
		if err != nil {
			return nil, err
		}

		return httpmock.NewBytesResponse(200, body), nil
	})
}

func TestParseTimeEntry(t *testing.T) {
	activateMock(t, map[string][]ducklingEntry{
		"tomorrow at 5pm": {{
			Body:  "tomorrow at 5pm",
			Dim:   "time",
			Start: 0,
			End:   15,
			Value: ducklingValue{Type: "value", Value: "2026-08-26T17:00:00.000-04:00", Grain: "hour"},
		}},
	})

	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	result, err := Parse(context.Background(), "tomorrow at 5pm", ref, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if result == nil {
		t.Fatal("expected a result")
	}

	expected := time.Date(2026, 8, 26, 17, 0, 0, 0, time.FixedZone("", -4*3600))
	if !result.When.Equal(expected) {
		t.Errorf("got %s, expected %s", result.When, expected)
	}

	if result.Start != 0 || result.End != 15 {
		t.Errorf("got offsets %d-%d, expected 0-15", result.Start, result.End)
	}
}

func TestParseDurationEntry(t *testing.T) {
	activateMock(t, map[string][]ducklingEntry{
		"2 hours": {{
			Body:  "2 hours",
			Dim:   "duration",
			Start: 0,
			End:   7,
			Value: ducklingValue{Type: "value", Normalized: &ducklingNormalized{Unit: "second", Value: 7200}},
		}},
	})

	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	result, err := Parse(context.Background(), "2 hours", ref, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if result == nil {
		t.Fatal("expected a result")
	}

	if !result.When.Equal(ref.Add(2 * time.Hour)) {
		t.Errorf("got %s, expected %s", result.When, ref.Add(2*time.Hour))
	}
}

func TestParseIntervalEntry(t *testing.T) {
	activateMock(t, map[string][]ducklingEntry{
		"this weekend": {{
			Body:  "this weekend",
			Dim:   "time",
			Start: 0,
			End:   12,
			Value: ducklingValue{
				Type: "interval",
				From: &ducklingTimeValue{Value: "2026-08-28T18:00:00.000+00:00", Grain: "hour"},
			},
		}},
	})

	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	result, err := Parse(context.Background(), "this weekend", ref, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if result == nil {
		t.Fatal("expected a result")
	}

	expected := time.Date(2026, 8, 28, 18, 0, 0, 0, time.UTC)
	if !result.When.Equal(expected) {
		t.Errorf("got %s, expected %s", result.When, expected)
	}
}

func TestParseFallbackWhenSidecarDown(t *testing.T) {
	confDucklingAddr.LoadedValue = testAddr

	httpmock.ActivateNonDefault(httpClient)
	t.Cleanup(httpmock.DeactivateAndReset)

	httpmock.RegisterResponder("POST", testAddr+"/parse",
		httpmock.NewErrorResponder(context.DeadlineExceeded))

	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	result, err := Parse(context.Background(), "in 2 hours", ref, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if result == nil {
		t.Fatal("expected the fallback parser to handle it")
	}

	if result.When.Before(ref.Add(time.Hour)) || result.When.After(ref.Add(3*time.Hour)) {
		t.Errorf("got %s, expected roughly %s", result.When, ref.Add(2*time.Hour))
	}
}

func TestSplitWhenAndWhat(t *testing.T) {
	activateMock(t, map[string][]ducklingEntry{
		"2 hours do the laundry": {{
			Body:  "2 hours",
			Dim:   "duration",
			Start: 0,
			End:   7,
			Value: ducklingValue{Type: "value", Normalized: &ducklingNormalized{Unit: "second", Value: 7200}},
		}},
		"do the laundry in 2 hours": {{
			Body:  "in 2 hours",
			Dim:   "duration",
			Start: 15,
			End:   25,
			Value: ducklingValue{Type: "value", Normalized: &ducklingNormalized{Unit: "second", Value: 7200}},
		}},
		"do laundry in 2 hours maybe": {{
			Body:  "in 2 hours",
			Dim:   "duration",
			Start: 11,
			End:   21,
			Value: ducklingValue{Type: "value", Normalized: &ducklingNormalized{Unit: "second", Value: 7200}},
		}},
	})

	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	when, what, err := SplitWhenAndWhat(context.Background(), "me in 2 hours do the laundry", ref, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if !when.Equal(ref.Add(2 * time.Hour)) {
		t.Errorf("got when %s, expected %s", when, ref.Add(2*time.Hour))
	}

	if what != "do the laundry" {
		t.Errorf("got what %q, expected \"do the laundry\"", what)
	}

	// time phrase at the end, message in front
	when, what, err = SplitWhenAndWhat(context.Background(), "do the laundry in 2 hours", ref, time.UTC)
	if err != nil {
		t.Fatal(err)
	}

	if !when.Equal(ref.Add(2 * time.Hour)) {
		t.Errorf("got when %s, expected %s", when, ref.Add(2*time.Hour))
	}

	if what != "do the laundry" {
		t.Errorf("got what %q, expected \"do the laundry\"", what)
	}

	// time phrase in the middle can't be split
	_, _, err = SplitWhenAndWhat(context.Background(), "do laundry in 2 hours maybe", ref, time.UTC)
	if err != ErrTimeAmbiguous {
		t.Errorf("got err %v, expected ErrTimeAmbiguous", err)
	}
}

func TestSplitWhenAndWhatNothingFound(t *testing.T) {
	activateMock(t, map[string][]ducklingEntry{})

	ref := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	_, _, err := SplitWhenAndWhat(context.Background(), "complete gibberish qqq", ref, time.UTC)
	if err != ErrNoTimeFound {
		t.Errorf("got err %v, expected ErrNoTimeFound", err)
	}
}
