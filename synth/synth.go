// Package synth turns text into voice clips through a VOICEVOX style engine
// running next to the bot. The engine does all the heavy lifting, this
// package shuttles the query JSON back and forth and reads the kana out of
// it.
package synth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"emperror.dev/errors"
	"github.com/hashicorp/go-cleanhttp"
	jsoniter "github.com/json-iterator/go"
	"github.com/karlseguin/ccache"
	"github.com/lurelin/medli/common"
	"github.com/lurelin/medli/common/config"
)

var (
	json = jsoniter.ConfigCompatibleWithStandardLibrary

	confSynthAddr = config.RegisterOption("medli.synth.addr", "Address of the speech synthesis sidecar, empty disables it", "http://localhost:50021")

	httpClient = cleanhttp.DefaultPooledClient()

	// the voice list only changes when the sidecar image does
	engineCache = ccache.New(ccache.Configure().MaxSize(4))
)

const engineCacheTTL = time.Hour

// ErrDisabled means no sidecar address is configured.
var ErrDisabled = errors.NewPlain("speech synthesis sidecar disabled")

type Plugin struct{}

func (p *Plugin) PluginInfo() *common.PluginInfo {
	return &common.PluginInfo{
		Name:     "Synth",
		SysName:  "synth",
		Category: common.PluginCategoryFun,
	}
}

func RegisterPlugin() {
	common.RegisterPlugin(&Plugin{})
}

type speakerResponse struct {
	Name   string `json:"name"`
	Styles []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"styles"`
}

// Engine is one selectable voice, a speaker style flattened out of the
// sidecar's nested listing.
type Engine struct {
	ID      int
	Speaker string
	Style   string
}

func (e Engine) String() string {
	return fmt.Sprintf("[%d] %s (%s)", e.ID, e.Speaker, e.Style)
}

// Engines lists the selectable voices in id order, cached for an hour.
func Engines(ctx context.Context) ([]Engine, error) {
	item, err := engineCache.Fetch("engines", engineCacheTTL, func() (interface{}, error) {
		return fetchEngines(ctx)
	})
	if err != nil {
		return nil, err
	}

	return item.Value().([]Engine), nil
}

func fetchEngines(ctx context.Context) ([]Engine, error) {
	addr := confSynthAddr.GetString()
	if addr == "" {
		return nil, ErrDisabled
	}

	req, err := http.NewRequestWithContext(ctx, "GET", addr+"/speakers", nil)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("speakers listing returned status %d", resp.StatusCode)
	}

	var speakers []speakerResponse
	err = json.NewDecoder(resp.Body).Decode(&speakers)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	var engines []Engine
	for _, speaker := range speakers {
		for _, style := range speaker.Styles {
			engines = append(engines, Engine{ID: style.ID, Speaker: speaker.Name, Style: style.Name})
		}
	}

	sort.Slice(engines, func(i, j int) bool { return engines[i].ID < engines[j].ID })

	return engines, nil
}

func findEngine(engines []Engine, id int) *Engine {
	for i := range engines {
		if engines[i].ID == id {
			return &engines[i]
		}
	}

	return nil
}

// Synthesize renders text with the given engine and returns the WAV bytes
// together with the kana reading the engine derived.
func Synthesize(ctx context.Context, engineID int, text string) (wav []byte, kana string, err error) {
	addr := confSynthAddr.GetString()
	if addr == "" {
		return nil, "", ErrDisabled
	}

	query, kana, err := audioQuery(ctx, addr, engineID, text)
	if err != nil {
		return nil, "", err
	}

	wav, err = synthesis(ctx, addr, engineID, query)
	if err != nil {
		return nil, "", err
	}

	return wav, kana, nil
}

// audioQuery builds the synthesis query. The query JSON goes back to the
// engine untouched, only the kana field is read out of it.
func audioQuery(ctx context.Context, addr string, engineID int, text string) ([]byte, string, error) {
	params := url.Values{
		"speaker": {strconv.Itoa(engineID)},
		"text":    {text},
	}

	req, err := http.NewRequestWithContext(ctx, "POST", addr+"/audio_query?"+params.Encode(), nil)
	if err != nil {
		return nil, "", errors.WithStackIf(err)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, "", errors.WithStackIf(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, "", errors.Errorf("audio query returned status %d", resp.StatusCode)
	}

	query, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", errors.WithStackIf(err)
	}

	var reading struct {
		Kana string `json:"kana"`
	}
	err = json.Unmarshal(query, &reading)
	if err != nil {
		return nil, "", errors.WithMessage(err, "malformed audio query")
	}

	return query, reading.Kana, nil
}

func synthesis(ctx context.Context, addr string, engineID int, query []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", addr+"/synthesis?speaker="+strconv.Itoa(engineID), bytes.NewReader(query))
	if err != nil {
		return nil, errors.WithStackIf(err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, errors.WithStackIf(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("synthesis returned status %d", resp.StatusCode)
	}

	wav, err := io.ReadAll(resp.Body)
	return wav, errors.WithStackIf(err)
}
