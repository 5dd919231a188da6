package models

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

type Currency struct {
	Code    string
	Name    string
	Symbol  string
	Country string
}

var Currencies = []Currency{
	{Code: "NGN", Name: "Nigerian Naira", Symbol: "₦", Country: "Nigeria"},
	{Code: "GHS", Name: "Ghanaian Cedi", Symbol: "₵", Country: "Ghana"},
	{Code: "KES", Name: "Kenyan Shilling", Symbol: "KSh", Country: "Kenya"},
	{Code: "ZAR", Name: "South African Rand", Symbol: "R", Country: "South Africa"},
	{Code: "TZS", Name: "Tanzanian Shilling", Symbol: "TSh", Country: "Tanzania"},
	{Code: "UGX", Name: "Ugandan Shilling", Symbol: "USh", Country: "Uganda"},
	{Code: "ETB", Name: "Ethiopian Birr", Symbol: "Br", Country: "Ethiopia"},
	{Code: "EGP", Name: "Egyptian Pound", Symbol: "E£", Country: "Egypt"},
	{Code: "MAD", Name: "Moroccan Dirham", Symbol: "د.م.", Country: "Morocco"},
	{Code: "XOF", Name: "West African Franc", Symbol: "Fr", Country: "West Africa"},
	{Code: "USD", Name: "US Dollar", Symbol: "$", Country: "USA"},
	{Code: "EUR", Name: "Euro", Symbol: "€", Country: "Europe"},
	{Code: "GBP", Name: "British Pound", Symbol: "£", Country: "UK"},
	{Code: "INR", Name: "Indian Rupee", Symbol: "₹", Country: "India"},
	{Code: "BRL", Name: "Brazilian Real", Symbol: "R$", Country: "Brazil"},
}

// DefaultCurrency is used when no valid currency has been chosen.
var DefaultCurrency = Currencies[0]

func LookupCurrency(code string) (Currency, bool) {
	for _, c := range Currencies {
		if c.Code == code {
			return c, true
		}
	}
	return Currency{}, false
}

var moneyPrinter = message.NewPrinter(language.English)

// FormatMoney renders amount with the currency symbol and English digit
// grouping, e.g. "₦1,234.5".
func FormatMoney(amount float64, c Currency) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + c.Symbol + moneyPrinter.Sprintf("%v", number.Decimal(amount, number.MaxFractionDigits(2)))
}
