package ads

import (
	"context"
	"log/slog"
)

// LoggingBridge stands in for the native SDK when the service runs without a
// device. Every call succeeds and is logged.
type LoggingBridge struct {
	logger *slog.Logger
}

func NewLoggingBridge(logger *slog.Logger) *LoggingBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingBridge{logger: logger}
}

func (b *LoggingBridge) Initialize(_ context.Context, p Placement) error {
	b.logger.Info("ad sdk initialize", "network", p.Network, "app_id", p.AppID, "testing", p.Testing)
	return nil
}

func (b *LoggingBridge) ShowBanner(_ context.Context, p Placement) error {
	b.logger.Info("ad sdk show banner", "network", p.Network, "ad_unit", p.BannerID)
	return nil
}

func (b *LoggingBridge) HideBanner(_ context.Context, p Placement) error {
	b.logger.Info("ad sdk hide banner", "network", p.Network)
	return nil
}

func (b *LoggingBridge) ShowInterstitial(_ context.Context, p Placement) error {
	b.logger.Info("ad sdk show interstitial", "network", p.Network, "ad_unit", p.InterstitialID)
	return nil
}
