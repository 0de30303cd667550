package format

import "testing"

func TestFmtCurrencyUSD(t *testing.T) {
	cases := map[int64]string{
		205000:   "$2,050.00",
		650000:   "$6,500.00",
		99:       "$0.99",
		-123456:  "-$1,234.56",
		0:        "$0.00",
		12345678: "$123,456.78",
	}
	for minor, want := range cases {
		if got := FmtCurrency(minor, "USD"); got != want {
			t.Fatalf("FmtCurrency(%d) = %q, want %q", minor, got, want)
		}
	}
}

func TestFmtCurrencyOther(t *testing.T) {
	if got := FmtCurrency(12345, "JPY"); got != "¥12,345" {
		t.Fatalf("unexpected JPY format %q", got)
	}
	if got := FmtCurrency(5000, "EUR"); got != "EUR 5,000" {
		t.Fatalf("unexpected generic format %q", got)
	}
}

func TestFmtPrice(t *testing.T) {
	if got := FmtPrice(2050.00, "USD"); got != "$2,050.00" {
		t.Fatalf("unexpected price format %q", got)
	}
	if got := FmtPrice(19.99, "USD"); got != "$19.99" {
		t.Fatalf("unexpected price format %q", got)
	}
}
