package site

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/huangsam/hypeplot/internal/contract"
	"github.com/huangsam/hypeplot/internal/metrics"
)

// filesPrefix is where the outputs dir is mounted on the router.
const filesPrefix = "/files"

// NewRouter exposes the outputs dir: the index page, the raw files, a JSON topic
// listing, a health probe and the Prometheus registry.
func NewRouter(outputDir string) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	router.GET("/", func(c *gin.Context) {
		topics, err := Scan(outputDir)
		if err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		var buf bytes.Buffer
		if err := Render(&buf, topics, filesPrefix); err != nil {
			c.String(http.StatusInternalServerError, err.Error())
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
	})

	router.Static(filesPrefix, outputDir)

	router.GET("/api/topics", func(c *gin.Context) {
		topics, err := Scan(outputDir)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		if topics == nil {
			topics = []Topic{}
		}
		c.JSON(http.StatusOK, gin.H{"total": len(topics), "items": topics})
	})

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "outputs": outputDir})
	})

	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	return router
}

// Serve runs the dashboard on addr until ctx is cancelled.
func Serve(ctx context.Context, addr, outputDir string) error {
	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              addr,
		Handler:           NewRouter(outputDir),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("🌐 Serving %s on http://%s\n", outputDir, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("serve %s: %w", addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		contract.LogWarn("Server shutdown", err)
	}
	return nil
}
