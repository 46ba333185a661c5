// Package anp provides a collector scraping average fuel prices per state from the ANP price survey.
package anp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/net/html/charset"

	"github.com/rodacerto/fuel-price-updater/internal/models"
	"github.com/rodacerto/fuel-price-updater/internal/useragent"
)

const (
	// CollectorName is the identifier for this collector.
	CollectorName = "anp"
	// DefaultURL is the public price survey page.
	DefaultURL = "https://preco.anp.gov.br/"
)

var (
	// ErrUnreachable is returned when the page cannot be fetched.
	ErrUnreachable = errors.New("anp: source unreachable")
	// ErrMalformedPage is returned when no table with state, product and price columns is found.
	ErrMalformedPage = errors.New("anp: no price table found")
	// ErrNoPrices is returned when a price table exists but no row could be extracted.
	ErrNoPrices = errors.New("anp: no prices extracted")
)

// Collector scrapes the ANP survey page.
type Collector struct {
	client *http.Client
	logger zerolog.Logger
	url    string
}

// New creates a new ANP collector. A zero timeout falls back to 30 seconds.
func New(logger zerolog.Logger, url string, timeout time.Duration) *Collector {
	if url == "" {
		url = DefaultURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Collector{
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger.With().Str("collector", CollectorName).Logger(),
		url:    url,
	}
}

// Name returns the collector identifier.
func (c *Collector) Name() string {
	return CollectorName
}

// Collect fetches the survey page and extracts one observation per state and fuel.
func (c *Collector) Collect(ctx context.Context) ([]models.PriceObservation, error) {
	c.logger.Debug().Str("url", c.url).Msg("fetching prices from ANP")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	req.Header.Set("User-Agent", useragent.Random())
	req.Header.Set("Accept", "text/html")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: unexpected status code %d: %s", ErrUnreachable, resp.StatusCode, string(body))
	}

	// The survey has been served as ISO-8859-1; goquery expects UTF-8.
	body, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("decoding response charset: %w", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("parsing response HTML: %w", err)
	}

	observations, err := c.extract(doc, time.Now())
	if err != nil {
		return nil, err
	}

	c.logger.Info().
		Int("count", len(observations)).
		Msg("fetched prices from ANP")

	return observations, nil
}

// key identifies a row in the destination table.
type key struct {
	region string
	fuel   models.FuelKind
}

// columns holds the cell indexes of the fields we need in a table row.
type columns struct {
	state, product, price int
}

// extract walks every table in the document and keeps the rows of the first one that has
// state, product and average price columns. Only the first row per state and fuel is kept,
// since a batch may not touch the same destination row twice.
func (c *Collector) extract(doc *goquery.Document, observedAt time.Time) ([]models.PriceObservation, error) {
	var (
		found        bool
		observations []models.PriceObservation
		skipped      int
		seen         = make(map[key]int)
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		cols, headerRow, ok := findColumns(table)
		if !ok {
			return true
		}
		found = true

		table.Find("tr").Each(func(i int, row *goquery.Selection) {
			if i <= headerRow {
				return
			}
			cells := row.Find("td")
			if cells.Length() == 0 {
				return
			}

			o, reason := parseRow(cells, cols)
			switch {
			case errors.Is(reason, errUnsupportedFuel):
				c.logger.Debug().Str("row", cellText(row)).Msg("skipping unsupported product")
			case reason != nil:
				skipped++
				c.logger.Warn().Err(reason).Str("row", cellText(row)).Msg("skipping unparsable row")
			default:
				k := key{region: o.RegionCode, fuel: o.FuelKind}
				if first, dup := seen[k]; dup {
					c.logger.Warn().
						Str("region", o.RegionCode).
						Str("fuel", string(o.FuelKind)).
						Str("kept", observations[first].Price.String()).
						Str("dropped", o.Price.String()).
						Msg("dropping duplicate price row")
					return
				}
				seen[k] = len(observations)
				o.ObservedAt = observedAt
				observations = append(observations, o)
			}
		})
		return false
	})

	if !found {
		return nil, ErrMalformedPage
	}
	if skipped > 0 {
		c.logger.Warn().
			Int("skipped", skipped).
			Int("extracted", len(observations)).
			Msg("partial extraction")
	}
	if len(observations) == 0 {
		return nil, ErrNoPrices
	}
	return observations, nil
}

var errUnsupportedFuel = errors.New("unsupported fuel")

func parseRow(cells *goquery.Selection, cols columns) (models.PriceObservation, error) {
	cell := func(i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	if cells.Length() <= max(cols.state, cols.product, cols.price) {
		return models.PriceObservation{}, fmt.Errorf("row has %d cells", cells.Length())
	}

	fuel, ok := fuelKind(cell(cols.product))
	if !ok {
		return models.PriceObservation{}, errUnsupportedFuel
	}

	region, ok := stateCode(cell(cols.state))
	if !ok {
		return models.PriceObservation{}, fmt.Errorf("unknown state %q", cell(cols.state))
	}

	price, err := parsePrice(cell(cols.price))
	if err != nil {
		return models.PriceObservation{}, err
	}

	return models.PriceObservation{
		RegionCode: region,
		FuelKind:   fuel,
		Price:      price,
	}, nil
}

// findColumns locates the header row of a table and the indexes of the needed columns.
// Header rows that do not name all three columns (titles, group headers) are ignored.
func findColumns(table *goquery.Selection) (columns, int, bool) {
	var found columns
	headerRow := -1

	table.Find("tr").EachWithBreak(func(i int, row *goquery.Selection) bool {
		headers := row.Find("th")
		if headers.Length() == 0 {
			return true
		}

		cols := columns{state: -1, product: -1, price: -1}
		headers.Each(func(j int, th *goquery.Selection) {
			h := normalize(th.Text())
			switch {
			case cols.state < 0 && (h == "UF" || strings.Contains(h, "ESTADO")):
				cols.state = j
			case cols.product < 0 && (strings.Contains(h, "PRODUTO") || strings.Contains(h, "COMBUSTIVEL")):
				cols.product = j
			case cols.price < 0 && strings.Contains(h, "PRECO MEDIO"):
				cols.price = j
			}
		})
		if cols.state < 0 || cols.product < 0 || cols.price < 0 {
			return true
		}

		found = cols
		headerRow = i
		return false
	})

	return found, headerRow, headerRow >= 0
}

// parsePrice accepts Brazilian notation ("R$ 1.234,56") and plain decimals ("5.89").
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(s), "R$"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parsing price %q: %w", s, err)
	}
	return price, nil
}

func cellText(row *goquery.Selection) string {
	return strings.Join(strings.Fields(row.Text()), " ")
}
