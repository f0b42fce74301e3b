package main

import (
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printer groups digits in counts ("12,345 photos").
var printer = message.NewPrinter(language.English)

func formatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.IBytes(uint64(n))
}

func formatCount(n int) string {
	return printer.Sprintf("%d", n)
}

func formatScanned(at *time.Time) string {
	if at == nil {
		return "never"
	}
	return at.Local().Format(time.DateTime)
}
