// Package dateparser resolves natural language time expressions. The heavy
// lifting happens in the duckling sidecar, a local rule based parser covers
// the common phrases when the sidecar is unreachable.
package dateparser

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"emperror.dev/errors"
	"github.com/cenkalti/backoff"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/jonas747/when"
	"github.com/jonas747/when/rules"
	wcommon "github.com/jonas747/when/rules/common"
	wen "github.com/jonas747/when/rules/en"
	jsoniter "github.com/json-iterator/go"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/config"
	"github.com/mediocregopher/radix/v3"
	"github.com/vmihailenco/msgpack"
)

var (
	logger = common.GetFixedPrefixLogger("dateparser")
	json   = jsoniter.ConfigCompatibleWithStandardLibrary

	confDucklingAddr = config.RegisterOption("medli.duckling.addr", "Address of the duckling date parsing sidecar, empty disables it", "http://localhost:8000")

	httpClient = cleanhttp.DefaultPooledClient()

	fallbackParser = newFallbackParser()
)

// ErrNoTimeFound means nothing in the input looked like a time.
var ErrNoTimeFound = errors.NewPlain("no time found in input")

// ErrTimeAmbiguous means the time phrase sat in the middle of the input, so
// the surrounding words can't be split from it reliably.
var ErrTimeAmbiguous = errors.NewPlain("could not tell the time apart from the rest of the input")

// Result is a resolved point in time inside a larger input string, Start and
// End delimit the phrase that produced it.
type Result struct {
	When  time.Time
	Start int
	End   int
}

// Parse resolves the first time expression in text. ref anchors relative
// phrases and loc gives wall clock phrases their zone. A nil result without
// an error means nothing in the text parsed as a time.
func Parse(ctx context.Context, text string, ref time.Time, loc *time.Location) (*Result, error) {
	if loc == nil {
		loc = time.UTC
	}

	if cached := checkCache(text, ref, loc); cached != nil {
		return cached, nil
	}

	result, err := parseDuckling(ctx, text, ref, loc)
	if err != nil {
		logger.WithError(err).Warn("duckling parse failed, using the fallback parser")
	}

	if result == nil {
		result = parseFallback(text, ref, loc)
	}

	if result != nil {
		storeCache(text, ref, loc, result)
	}

	return result, nil
}

// SplitWhenAndWhat separates inputs like "in two hours do the laundry" into
// the time they name and the rest of the text. The time phrase has to sit at
// the start or the end of the input.
func SplitWhenAndWhat(ctx context.Context, input string, ref time.Time, loc *time.Location) (time.Time, string, error) {
	input = strings.TrimSpace(input)

	for _, prefix := range []string{"me to ", "me in ", "me at ", "me that "} {
		if strings.HasPrefix(input, prefix) {
			input = input[len(prefix):]
			break
		}
	}

	input = strings.TrimSpace(strings.TrimSuffix(input, "from now"))

	result, err := Parse(ctx, input, ref, loc)
	if err != nil {
		return time.Time{}, "", err
	}

	if result == nil {
		return time.Time{}, "", ErrNoTimeFound
	}

	if result.Start != 0 && result.End != len(input) {
		return time.Time{}, "", ErrTimeAmbiguous
	}

	var what string
	if result.Start == 0 {
		what = strings.TrimLeft(input[result.End:], " ,.!:;")
	} else {
		what = strings.TrimSpace(input[:result.Start])
	}

	what = strings.TrimPrefix(what, "to ")

	return result.When, what, nil
}

type ducklingEntry struct {
	Body   string        `json:"body"`
	Dim    string        `json:"dim"`
	Start  int           `json:"start"`
	End    int           `json:"end"`
	Latent bool          `json:"latent"`
	Value  ducklingValue `json:"value"`
}

type ducklingValue struct {
	Type       string              `json:"type"`
	Value      string              `json:"value"`
	Grain      string              `json:"grain"`
	From       *ducklingTimeValue  `json:"from"`
	Normalized *ducklingNormalized `json:"normalized"`
}

type ducklingTimeValue struct {
	Value string `json:"value"`
	Grain string `json:"grain"`
}

type ducklingNormalized struct {
	Unit  string `json:"unit"`
	Value int64  `json:"value"`
}

func parseDuckling(ctx context.Context, text string, ref time.Time, loc *time.Location) (*Result, error) {
	addr := confDucklingAddr.GetString()
	if addr == "" {
		return nil, errors.NewPlain("duckling sidecar disabled")
	}

	form := url.Values{
		"locale":  {"en_US"},
		"text":    {text},
		"dims":    {`["time","duration"]`},
		"tz":      {loc.String()},
		"reftime": {strconv.FormatInt(ref.UnixMilli(), 10)},
	}

	var entries []ducklingEntry
	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "POST", addr+"/parse", strings.NewReader(form.Encode()))
		if err != nil {
			return backoff.Permanent(err)
		}

		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

		resp, err := httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return errors.Errorf("duckling returned status %d", resp.StatusCode)
		}

		entries = entries[:0]
		return json.NewDecoder(resp.Body).Decode(&entries)
	}

	// one retry, the sidecar restarts fast when compose bounces it
	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, errors.WithStackIf(err)
	}

	return pickEntry(entries, ref)
}

// pickEntry takes the first non latent resolution, intervals like "this
// weekend" resolve to their starting edge.
func pickEntry(entries []ducklingEntry, ref time.Time) (*Result, error) {
	for _, entry := range entries {
		if entry.Latent {
			continue
		}

		switch entry.Dim {
		case "time":
			raw := entry.Value.Value
			if raw == "" && entry.Value.From != nil {
				raw = entry.Value.From.Value
			}

			if raw == "" {
				continue
			}

			when, err := time.Parse(time.RFC3339Nano, raw)
			if err != nil {
				return nil, errors.WithMessage(err, "malformed duckling time")
			}

			return &Result{When: when, Start: entry.Start, End: entry.End}, nil
		case "duration":
			if entry.Value.Normalized == nil || entry.Value.Normalized.Unit != "second" {
				continue
			}

			return &Result{
				When:  ref.Add(time.Duration(entry.Value.Normalized.Value) * time.Second),
				Start: entry.Start,
				End:   entry.End,
			}, nil
		}
	}

	return nil, nil
}

func newFallbackParser() *when.Parser {
	w := when.New(&rules.Options{
		Distance:     10,
		MatchByOrder: true})

	w.Add(wen.All...)
	w.Add(wcommon.All...)

	return w
}

func parseFallback(text string, ref time.Time, loc *time.Location) *Result {
	result, err := fallbackParser.Parse(text, ref.In(loc))
	if err != nil || result == nil {
		return nil
	}

	return &Result{
		When:  result.Time,
		Start: result.Index,
		End:   result.Index + len(result.Text),
	}
}

// the cache key carries the reference minute, relative phrases resolve
// differently as time moves on
func cacheKey(text string, ref time.Time, loc *time.Location) string {
	return "dateparser_cache:" + loc.String() + ":" + strconv.FormatInt(ref.Unix()/60, 10) + ":" + text
}

func checkCache(text string, ref time.Time, loc *time.Location) *Result {
	if common.RedisPool == nil {
		return nil
	}

	var raw []byte
	err := common.RedisPool.Do(radix.Cmd(&raw, "GET", cacheKey(text, ref, loc)))
	if err != nil || len(raw) == 0 {
		return nil
	}

	decoded := &Result{}
	if err := msgpack.Unmarshal(raw, decoded); err != nil {
		return nil
	}

	return decoded
}

func storeCache(text string, ref time.Time, loc *time.Location, result *Result) {
	if common.RedisPool == nil {
		return
	}

	encoded, err := msgpack.Marshal(result)
	if err != nil {
		return
	}

	err = common.RedisPool.Do(radix.FlatCmd(nil, "SET", cacheKey(text, ref, loc), encoded, "EX", 600))
	if err != nil {
		logger.WithError(err).Error("failed caching parse result")
	}
}
