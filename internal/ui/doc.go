// Package ui provides the small terminal widgets used by dtui's one-shot
// commands (init, hosts): a status spinner, an SSH host picker and a shared
// color palette. The live dashboard lives in internal/dashboard.
//
// Colors are ANSI codes for broad terminal compatibility:
//
//	ColorSuccess   (green)  - Successful operations
//	ColorError     (red)    - Failures and errors
//	ColorWarning   (yellow) - Warnings and skipped items
//	ColorInfo      (cyan)   - Informational messages
//	ColorMuted     (gray)   - Secondary text, timing info
//	ColorSecondary (blue)   - In-progress indicators
package ui
