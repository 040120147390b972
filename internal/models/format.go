package models

import (
	"fmt"
	"math"
	"strconv"
)

// FormatFixed3 renders a value with three decimals. Infinite and NaN values
// are spelled the way the status surfaces show them.
func FormatFixed3(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "Infinity"
	case math.IsInf(v, -1):
		return "-Infinity"
	case math.IsNaN(v):
		return "NaN"
	}
	return strconv.FormatFloat(v, 'f', 3, 64)
}

// FormatTiming renders the timing status line
func FormatTiming(sample FrameTimingSample) string {
	return fmt.Sprintf("[processing time] %s ms", FormatFixed3(sample.Milliseconds()))
}

// FormatScore renders the score status line
func FormatScore(result ScoreResult) string {
	return fmt.Sprintf("[result] psnr:%s, mssimR:%s, mssimG:%s, mssimB:%s, mssimA:%s",
		FormatFixed3(result.PSNR),
		FormatFixed3(result.MSSIM.R),
		FormatFixed3(result.MSSIM.G),
		FormatFixed3(result.MSSIM.B),
		FormatFixed3(result.MSSIM.A),
	)
}
