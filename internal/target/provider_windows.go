//go:build windows

package target

import (
	"context"
	"image"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/fakeyudi/lapse/internal/processutil"
)

const displayScript = `Add-Type -AssemblyName System.Windows.Forms
$b = [System.Windows.Forms.Screen]::PrimaryScreen.Bounds
"{0}x{1}" -f $b.Width, $b.Height`

const windowsScript = `Add-Type @"
using System;
using System.Runtime.InteropServices;
public struct LapseRect { public int Left; public int Top; public int Right; public int Bottom; }
public static class LapseUser32 {
  [DllImport("user32.dll")] public static extern bool GetWindowRect(IntPtr hWnd, out LapseRect rect);
}
"@
Get-Process | Where-Object { $_.MainWindowTitle -ne "" } | ForEach-Object {
  $r = New-Object LapseRect
  [void][LapseUser32]::GetWindowRect($_.MainWindowHandle, [ref]$r)
  "{0}|{1}|{2}|{3}|{4}|{5}" -f $_.MainWindowHandle, $r.Left, $r.Top, ($r.Right - $r.Left), ($r.Bottom - $r.Top), $_.MainWindowTitle
}`

type windowsProvider struct {
	logger hclog.Logger
}

// NewHostProvider returns the Provider for the running platform. On Windows
// displays and top-level windows are read through PowerShell.
func NewHostProvider(_ string, logger hclog.Logger) Provider {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &windowsProvider{logger: logger.Named("provider")}
}

func powershell(ctx context.Context, script string) (string, error) {
	return processutil.Output(ctx, "powershell", "-NoProfile", "-NonInteractive", "-Command", script)
}

func (p *windowsProvider) PrimaryDisplay(ctx context.Context) (Geometry, error) {
	out, err := powershell(ctx, displayScript)
	if err != nil {
		return Geometry{}, err
	}
	return ParseSize(strings.TrimSpace(out))
}

func (p *windowsProvider) Sources(ctx context.Context, _ image.Point) ([]Source, error) {
	out, err := powershell(ctx, windowsScript)
	if err != nil {
		return nil, err
	}
	return ParseWindowRows(out, MinPreviewSize*PreviewScale), nil
}
