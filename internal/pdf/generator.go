package pdf

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Chromium 使用 go-rod 启动无头浏览器，把预览 HTML 打印为 PDF 或截取缩略图。
// 每次调用都会启动独立的浏览器进程，调用结束即清理。
type Chromium struct {
	bin     string
	timeout time.Duration
	logger  *slog.Logger
}

// NewChromium returns a printer. An empty bin lets rod locate a browser.
func NewChromium(bin string, timeout time.Duration, logger *slog.Logger) *Chromium {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Chromium{bin: bin, timeout: timeout, logger: logger}
}

// PrintPDF renders htmlContent on US Letter paper and returns the PDF bytes.
func (c *Chromium) PrintPDF(ctx context.Context, htmlContent string) ([]byte, error) {
	var data []byte
	err := c.withPage(ctx, htmlContent, func(page *rod.Page) error {
		if err := (proto.EmulationSetEmulatedMedia{Media: "print"}).Call(page); err != nil {
			return fmt.Errorf("set emulated media to print: %w", err)
		}
		reader, err := page.PDF(&proto.PagePrintToPDF{
			PrintBackground:   true,
			PreferCSSPageSize: true,
			PaperWidth:        inches(8.5),
			PaperHeight:       inches(11),
			MarginTop:         inches(0),
			MarginBottom:      inches(0),
			MarginLeft:        inches(0),
			MarginRight:       inches(0),
		})
		if err != nil {
			return fmt.Errorf("export pdf: %w", err)
		}
		defer func() {
			_ = reader.Close()
		}()
		data, err = io.ReadAll(reader)
		if err != nil {
			return fmt.Errorf("read pdf bytes: %w", err)
		}
		return nil
	})
	return data, err
}

// Screenshot renders htmlContent at Letter width (816 CSS px) and returns
// a PNG of the first page.
func (c *Chromium) Screenshot(ctx context.Context, htmlContent string) ([]byte, error) {
	var data []byte
	err := c.withPage(ctx, htmlContent, func(page *rod.Page) error {
		if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
			Width:             816,
			Height:            1056,
			DeviceScaleFactor: 1,
		}); err != nil {
			return fmt.Errorf("set viewport: %w", err)
		}
		shot, err := page.Screenshot(false, &proto.PageCaptureScreenshot{
			Format: proto.PageCaptureScreenshotFormatPng,
		})
		if err != nil {
			return fmt.Errorf("capture screenshot: %w", err)
		}
		data = shot
		return nil
	})
	return data, err
}

func (c *Chromium) withPage(ctx context.Context, htmlContent string, fn func(page *rod.Page) error) error {
	launch := launcher.New().
		Headless(true).
		NoSandbox(true)

	if c.bin != "" {
		launch = launch.Bin(c.bin)
	} else if path, ok := launcher.LookPath(); ok {
		launch = launch.Bin(path)
	}

	browserURL, err := launch.Launch()
	if err != nil {
		return fmt.Errorf("launch chromium: %w", err)
	}
	defer launch.Cleanup()

	browser := rod.New().ControlURL(browserURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}
	defer func() {
		_ = browser.Close()
	}()

	page, err := browser.Timeout(c.timeout).Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("create page: %w", err)
	}
	defer func() {
		_ = page.Close()
	}()

	page = page.Timeout(c.timeout)
	if err := page.SetDocumentContent(htmlContent); err != nil {
		return fmt.Errorf("set document content: %w", err)
	}
	if err := page.WaitLoad(); err != nil {
		return fmt.Errorf("wait load: %w", err)
	}

	start := time.Now()
	if err := fn(page); err != nil {
		return err
	}
	c.logger.Debug("chromium render finished", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func inches(v float64) *float64 { return &v }
