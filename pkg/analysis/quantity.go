package analysis

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseCPU converts a Kubernetes CPU usage quantity to nanocores.
// Supported forms: "1500000n" (nanocores), "1500u" (microcores),
// "12m" (millicores) and bare core counts such as "0.5". An empty
// string parses to zero.
func ParseCPU(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	switch {
	case strings.HasSuffix(s, "n"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "n"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid CPU quantity %q: %w", s, err)
		}
		return v, nil
	case strings.HasSuffix(s, "u"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "u"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid CPU quantity %q: %w", s, err)
		}
		return v * 1000, nil
	case strings.HasSuffix(s, "m"):
		v, err := strconv.ParseInt(strings.TrimSuffix(s, "m"), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid CPU quantity %q: %w", s, err)
		}
		return v * 1000000, nil
	default:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid CPU quantity %q: %w", s, err)
		}
		return int64(v * 1e9), nil
	}
}

// ParseMemory converts a Kubernetes memory usage quantity to bytes.
// Binary suffixes (Ki, Mi, Gi) and decimal suffixes (K, M, G, in either
// case) are supported; a bare value is taken as bytes. Note the single
// lowercase "m" means megabytes here, matching the metrics wire format
// this monitor consumes, which is why apimachinery's resource.Quantity
// (where "m" is milli) is not used.
func ParseMemory(s string) (int64, error) {
	if s == "" {
		return 0, nil
	}

	parse := func(num string, multiplier int64) (int64, error) {
		v, err := strconv.ParseInt(num, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid memory quantity %q: %w", s, err)
		}
		return v * multiplier, nil
	}

	switch {
	case strings.HasSuffix(s, "Ki"):
		return parse(strings.TrimSuffix(s, "Ki"), 1024)
	case strings.HasSuffix(s, "Mi"):
		return parse(strings.TrimSuffix(s, "Mi"), 1024*1024)
	case strings.HasSuffix(s, "Gi"):
		return parse(strings.TrimSuffix(s, "Gi"), 1024*1024*1024)
	case strings.HasSuffix(s, "K"), strings.HasSuffix(s, "k"):
		return parse(s[:len(s)-1], 1000)
	case strings.HasSuffix(s, "M"), strings.HasSuffix(s, "m"):
		return parse(s[:len(s)-1], 1000*1000)
	case strings.HasSuffix(s, "G"), strings.HasSuffix(s, "g"):
		return parse(s[:len(s)-1], 1000*1000*1000)
	default:
		return parse(s, 1)
	}
}

// FormatMillicores renders nanocores as millicores with one decimal.
func FormatMillicores(nanocores int64) string {
	return fmt.Sprintf("%.1fm", float64(nanocores)/1e6)
}

// FormatMebibytes renders bytes as MiB with one decimal.
func FormatMebibytes(bytes int64) string {
	return fmt.Sprintf("%.1fMi", float64(bytes)/1024/1024)
}
