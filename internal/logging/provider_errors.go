// Copyright (c) 2025 Autogen-BIRD
// Licensed under the MIT License. See LICENSE file in the project root for details.

package logging

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// ProviderErrorType represents the category of an LLM provider error
type ProviderErrorType int

const (
	ProviderErrorUnknown ProviderErrorType = iota
	ProviderErrorNetwork
	ProviderErrorAuth
	ProviderErrorRateLimit
	ProviderErrorTimeout
	ProviderErrorUnavailable
)

// ParseProviderError categorizes an LLM provider error message
func ParseProviderError(errMsg string) ProviderErrorType {
	lower := strings.ToLower(errMsg)

	// Check for specific error patterns
	if strings.Contains(lower, "connection refused") || strings.Contains(lower, "connection reset") ||
		strings.Contains(lower, "no such host") || strings.Contains(lower, "unexpected eof") {
		return ProviderErrorNetwork
	}
	if strings.Contains(lower, "401") || strings.Contains(lower, "invalid api key") ||
		strings.Contains(lower, "unauthorized") || strings.Contains(lower, "incorrect api key") {
		return ProviderErrorAuth
	}
	if strings.Contains(lower, "429") || strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "quota") {
		return ProviderErrorRateLimit
	}
	if strings.Contains(lower, "deadline") || strings.Contains(lower, "timeout") {
		return ProviderErrorTimeout
	}
	if strings.Contains(lower, "unavailable") || strings.Contains(lower, "overloaded") ||
		strings.Contains(lower, "502") || strings.Contains(lower, "503") {
		return ProviderErrorUnavailable
	}

	return ProviderErrorUnknown
}

// FormatProviderError formats an LLM provider error in a user-friendly way
func FormatProviderError(errMsg string) string {
	errType := ParseProviderError(errMsg)

	var builder strings.Builder

	// Title
	builder.WriteString(pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprint("Provider Request Failed"))
	builder.WriteString("\n\n")

	// User-friendly description
	switch errType {
	case ProviderErrorNetwork:
		builder.WriteString("The connection to the model provider was interrupted.\n")
		builder.WriteString("This usually happens when:\n")
		builder.WriteString("  • Your internet connection was disrupted\n")
		builder.WriteString("  • A firewall or proxy closed the connection\n")
		builder.WriteString("  • The configured base_url points at the wrong host\n")

	case ProviderErrorAuth:
		builder.WriteString("Authentication with the model provider failed.\n")
		builder.WriteString("To fix this:\n")
		builder.WriteString("  • Run 'birdsql login' to store a valid API key\n")
		builder.WriteString("  • Or export OPENAI_API_KEY before running\n")

	case ProviderErrorRateLimit:
		builder.WriteString("The model provider is rate limiting this key.\n")
		builder.WriteString("Possible reasons:\n")
		builder.WriteString("  • Too many parallel workers for your quota\n")
		builder.WriteString("  • requests_per_minute is set higher than the account allows\n")

	case ProviderErrorTimeout:
		builder.WriteString("The request to the model provider timed out.\n")
		builder.WriteString("This could be due to:\n")
		builder.WriteString("  • Slow or unstable internet connection\n")
		builder.WriteString("  • The model taking too long to respond\n")

	case ProviderErrorUnavailable:
		builder.WriteString("The model provider is currently unavailable.\n")
		builder.WriteString("Possible reasons:\n")
		builder.WriteString("  • The service is temporarily overloaded\n")
		builder.WriteString("  • There's a service outage\n")

	default:
		builder.WriteString("The request to the model provider failed.\n")
		builder.WriteString("This could mean:\n")
		builder.WriteString("  • Network connection dropped\n")
		builder.WriteString("  • The provider rejected the request\n")
	}

	builder.WriteString("\n")

	// Action to take
	if errType == ProviderErrorAuth {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please run 'birdsql login' and try again"))
	} else {
		builder.WriteString(pterm.NewStyle(pterm.FgYellow).Sprint("→ Please try again, or lower workers in the config"))
	}

	builder.WriteString("\n")

	// Technical details (optional, for debugging)
	if strings.TrimSpace(errMsg) != "" {
		builder.WriteString("\n")
		builder.WriteString(pterm.NewStyle(pterm.FgGray).Sprint("Technical details: " + Mask(errMsg)))
	}

	return builder.String()
}

// PresentProviderError displays a formatted provider error
func PresentProviderError(errMsg string) {
	fmt.Println()
	fmt.Println(FormatProviderError(errMsg))
	fmt.Println()
}
