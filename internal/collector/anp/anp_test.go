package anp

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rodacerto/fuel-price-updater/internal/models"
)

const surveyPage = `<html><body>
<table><tr><td>menu</td></tr></table>
<table class="resultado">
  <thead>
    <tr><th colspan="4">Síntese dos preços praticados</th></tr>
    <tr><th>Estado</th><th>Produto</th><th>Nº de postos</th><th>Preço médio revenda</th></tr>
  </thead>
  <tbody>
    <tr><td>SÃO PAULO</td><td>GASOLINA COMUM</td><td>1200</td><td>R$ 5,89</td></tr>
    <tr><td>São Paulo</td><td>Etanol Hidratado</td><td>1100</td><td>3,45</td></tr>
    <tr><td>RJ</td><td>GASOLINA</td><td>800</td><td>6,12</td></tr>
    <tr><td>RIO DE JANEIRO</td><td>GLP</td><td>500</td><td>110,00</td></tr>
    <tr><td>MINAS GERAIS</td><td>ÓLEO DIESEL</td><td>900</td><td>6,01</td></tr>
  </tbody>
</table>
</body></html>`

func newTestCollector(t *testing.T, handler http.HandlerFunc) (*Collector, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	var buf bytes.Buffer
	return New(zerolog.New(&buf), srv.URL, 5*time.Second), &buf
}

func TestCollectParsesSurveyTable(t *testing.T) {
	var userAgent string
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(surveyPage))
	})

	before := time.Now()
	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}

	if !strings.HasPrefix(userAgent, "Mozilla/5.0") {
		t.Errorf("User-Agent = %q, want a browser-like agent", userAgent)
	}

	want := []struct {
		region string
		fuel   models.FuelKind
		price  string
	}{
		{"SP", models.FuelGasolina, "5.89"},
		{"SP", models.FuelEtanol, "3.45"},
		{"RJ", models.FuelGasolina, "6.12"},
		{"MG", models.FuelDiesel, "6.01"},
	}
	if len(got) != len(want) {
		t.Fatalf("got %d observations, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].RegionCode != w.region || got[i].FuelKind != w.fuel || got[i].Price.String() != w.price {
			t.Errorf("observation %d = %s/%s/%s, want %s/%s/%s",
				i, got[i].RegionCode, got[i].FuelKind, got[i].Price, w.region, w.fuel, w.price)
		}
		if got[i].ObservedAt.Before(before) {
			t.Errorf("observation %d observedAt %s before collection", i, got[i].ObservedAt)
		}
	}
}

func TestCollectSkipsUnparsableRows(t *testing.T) {
	page := `<table>
<tr><th>UF</th><th>Combustível</th><th>Preço Médio</th></tr>
<tr><td>SP</td><td>GASOLINA</td><td>5,89</td></tr>
<tr><td>XX</td><td>GASOLINA</td><td>5,00</td></tr>
<tr><td>RJ</td><td>ETANOL</td><td>n/d</td></tr>
<tr><td>MG</td></tr>
</table>`
	c, logs := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})

	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 1 || got[0].RegionCode != "SP" {
		t.Fatalf("got %+v, want only the SP row", got)
	}
	if !strings.Contains(logs.String(), `"skipped":3`) {
		t.Errorf("expected partial extraction warning with skipped=3, logs: %s", logs.String())
	}
}

func TestCollectDecodesLatin1Page(t *testing.T) {
	page := "<table>" +
		"<tr><th>ESTADO</th><th>PRODUTO</th><th>PRE\xc7O M\xc9DIO REVENDA</th></tr>" +
		"<tr><td>S\xc3O PAULO</td><td>GASOLINA</td><td>5,89</td></tr>" +
		"<tr><td>PIAU\xcd</td><td>\xd3LEO DIESEL</td><td>6,01</td></tr>" +
		"</table>"
	c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=ISO-8859-1")
		_, _ = w.Write([]byte(page))
	})

	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d observations, want 2: %+v", len(got), got)
	}
	if got[0].RegionCode != "SP" || got[0].FuelKind != models.FuelGasolina || got[0].Price.String() != "5.89" {
		t.Errorf("observation 0 = %+v", got[0])
	}
	if got[1].RegionCode != "PI" || got[1].FuelKind != models.FuelDiesel || got[1].Price.String() != "6.01" {
		t.Errorf("observation 1 = %+v", got[1])
	}
}

func TestCollectKeepsFirstRowPerStateAndFuel(t *testing.T) {
	page := `<table>
<tr><th>Estado</th><th>Produto</th><th>Preço médio</th></tr>
<tr><td>SAO PAULO</td><td>GASOLINA</td><td>5,89</td></tr>
<tr><td>SAO PAULO</td><td>GASOLINA COMUM</td><td>5,91</td></tr>
<tr><td>SAO PAULO</td><td>ETANOL</td><td>3,45</td></tr>
</table>`
	c, logs := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	})

	got, err := c.Collect(context.Background())
	if err != nil {
		t.Fatalf("Collect: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d observations, want 2: %+v", len(got), got)
	}
	if got[0].FuelKind != models.FuelGasolina || got[0].Price.String() != "5.89" {
		t.Errorf("gasolina = %s, want the first row's 5.89", got[0].Price)
	}
	if got[1].FuelKind != models.FuelEtanol {
		t.Errorf("observation 1 = %+v", got[1])
	}
	if !strings.Contains(logs.String(), "dropping duplicate price row") || !strings.Contains(logs.String(), `"dropped":"5.91"`) {
		t.Errorf("expected duplicate warning, logs: %s", logs.String())
	}
}

func TestCollectErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{
			name:    "server error",
			status:  http.StatusServiceUnavailable,
			body:    "maintenance",
			wantErr: ErrUnreachable,
		},
		{
			name:    "no table",
			status:  http.StatusOK,
			body:    "<html><body><p>Em manutenção</p></body></html>",
			wantErr: ErrMalformedPage,
		},
		{
			name:    "table without price column",
			status:  http.StatusOK,
			body:    "<table><tr><th>Estado</th><th>Produto</th></tr><tr><td>SP</td><td>GASOLINA</td></tr></table>",
			wantErr: ErrMalformedPage,
		},
		{
			name:    "no usable rows",
			status:  http.StatusOK,
			body:    "<table><tr><th>Estado</th><th>Produto</th><th>Preço médio</th></tr><tr><td>SP</td><td>GASOLINA</td><td>-</td></tr></table>",
			wantErr: ErrNoPrices,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestCollector(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := c.Collect(context.Background())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCollectUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(zerolog.Nop(), url, time.Second)
	_, err := c.Collect(context.Background())
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("err = %v, want ErrUnreachable", err)
	}
}

func TestParsePrice(t *testing.T) {
	tests := map[string]string{
		"5,89":        "5.89",
		"R$ 6,12":     "6.12",
		"R$ 1.234,50": "1234.5",
		"5.95":        "5.95",
		" 3,80 ":      "3.8",
	}
	for in, want := range tests {
		got, err := parsePrice(in)
		if err != nil {
			t.Errorf("parsePrice(%q): %v", in, err)
			continue
		}
		if got.String() != want {
			t.Errorf("parsePrice(%q) = %s, want %s", in, got, want)
		}
	}

	if _, err := parsePrice("n/d"); err == nil {
		t.Error("expected error for n/d")
	}
}

func TestStateCode(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"SP", "SP", true},
		{"sp", "SP", true},
		{"São Paulo", "SP", true},
		{"  ESPÍRITO   SANTO ", "ES", true},
		{"Mato Grosso do Sul", "MS", true},
		{"XX", "", false},
		{"Atlantis", "", false},
	}
	for _, tt := range tests {
		got, ok := stateCode(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("stateCode(%q) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"Preço  Médio":    "PRECO MEDIO",
		"ÒLEO DIÈSEL":     "OLEO DIESEL",
		"sa\u0303o paulo": "SAO PAULO",
		" combustível\t":  "COMBUSTIVEL",
		"Rondônia":        "RONDONIA",
	}
	for in, want := range tests {
		if got := normalize(in); got != want {
			t.Errorf("normalize(%q) = %q, want %q", in, got, want)
		}
	}
}
