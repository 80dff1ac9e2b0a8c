// Package qr handles the QR code shown next to an issued retrieval code:
// the server-rendered PNG asset and a terminal rendering of the link.
package qr

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/mdp/qrterminal/v3"

	"github.com/instantshare/instantshare/internal/constants"
	"github.com/instantshare/instantshare/internal/events"
	"github.com/instantshare/instantshare/internal/logging"
)

// ErrNotPNG is returned when the asset endpoint answers with something other
// than a PNG image.
var ErrNotPNG = errors.New("qr asset is not a png image")

// Half-block glyphs for compact terminal output.
const (
	blackBlack = " "
	whiteBlack = "▀"
	whiteWhite = "█"
	blackWhite = "▄"
)

// AssetURL returns the QR image URL for code. The t parameter carries the
// request time in nanoseconds so caches never serve a previous code's image.
func AssetURL(base, code string, now time.Time) string {
	base = strings.TrimRight(base, "/")
	q := url.Values{"t": {strconv.FormatInt(now.UnixNano(), 10)}}
	return base + constants.QRPathPrefix + url.PathEscape(code) + constants.QRPathSuffix + "?" + q.Encode()
}

// AssetClient fetches small static assets. *api.Client implements it.
type AssetClient interface {
	FetchAsset(ctx context.Context, assetURL string) ([]byte, string, error)
}

// Asset is a downloaded QR image.
type Asset struct {
	Code string
	URL  string
	Data []byte
}

// Fetcher downloads QR assets.
type Fetcher struct {
	client AssetClient
	bus    *events.EventBus
	logger *logging.Logger
}

// NewFetcher creates a fetcher. bus and logger may be nil.
func NewFetcher(client AssetClient, bus *events.EventBus, logger *logging.Logger) *Fetcher {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Fetcher{client: client, bus: bus, logger: logger}
}

// Fetch downloads the asset at assetURL and checks that it is a PNG. The
// declared content type is trusted first; content sniffing decides when the
// server omits or mislabels it.
func (f *Fetcher) Fetch(ctx context.Context, code, assetURL string) (Asset, error) {
	data, mediaType, err := f.client.FetchAsset(ctx, assetURL)
	if err == nil && mediaType != "image/png" && !mimetype.Detect(data).Is("image/png") {
		err = fmt.Errorf("%w: got %s", ErrNotPNG, mediaType)
	}

	ev := &events.QRAssetEvent{
		BaseEvent: events.NewBase(events.EventQRAssetFetched),
		Code:      code,
		URL:       assetURL,
		Bytes:     len(data),
		Error:     err,
	}
	f.bus.Publish(ev)

	if err != nil {
		f.logger.Warn().Err(err).Str("url", assetURL).Msg("QR asset unavailable")
		return Asset{}, err
	}
	f.logger.Debug().Str("url", assetURL).Int("bytes", len(data)).Msg("QR asset fetched")
	return Asset{Code: code, URL: assetURL, Data: data}, nil
}

// Render writes content as a terminal QR code using half blocks.
func Render(w io.Writer, content string) {
	qrterminal.GenerateWithConfig(content, qrterminal.Config{
		Level:          qrterminal.M,
		Writer:         w,
		HalfBlocks:     true,
		BlackChar:      blackBlack,
		WhiteBlackChar: whiteBlack,
		WhiteChar:      whiteWhite,
		BlackWhiteChar: blackWhite,
		QuietZone:      1,
	})
}

// RenderString returns the terminal QR code for content.
func RenderString(content string) string {
	var b strings.Builder
	Render(&b, content)
	return b.String()
}
