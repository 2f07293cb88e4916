package display

import "github.com/noah-isme/storefront-pricing/internal/currency"

// Formatter renders an amount in a currency. *currency.Service satisfies it.
type Formatter interface {
	Format(amount float64, p currency.Profile) string
}

// Options carries optional presentation inputs.
type Options struct {
	// Original is the pre-discount amount, rendered struck through when higher than the amount.
	Original *float64
}

// Rendered is the presentation of a price.
type Rendered struct {
	Primary       string `json:"primary"`
	StrikeThrough string `json:"strikeThrough,omitempty"`
}

// Renderer formats already computed amounts. It performs no conversion or discounting.
type Renderer struct {
	Formatter Formatter
}

// Display renders amount, with the original price struck through when one is supplied.
func (r Renderer) Display(amount float64, p currency.Profile, opts Options) Rendered {
	out := Rendered{Primary: r.Formatter.Format(amount, p)}
	if opts.Original != nil && *opts.Original > amount {
		out.StrikeThrough = r.Formatter.Format(*opts.Original, p)
	}
	return out
}

// Price renders a quoted price, striking through its original amount when discounted.
func (r Renderer) Price(price currency.Price, p currency.Profile) Rendered {
	if !price.Discounted {
		return r.Display(price.Amount, p, Options{})
	}
	original := price.Original
	return r.Display(price.Amount, p, Options{Original: &original})
}
