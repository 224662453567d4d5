package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/example/uniform-control/internal/alert"
	"github.com/example/uniform-control/internal/classifier"
	"github.com/example/uniform-control/internal/report"
	"github.com/example/uniform-control/internal/session"
	"github.com/example/uniform-control/internal/usecase"
	"github.com/example/uniform-control/internal/ws"
)

var upgrader = websocket.Upgrader{
	// Cross-origin policy for the alert feed is enforced by the CORS layer.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// RegisterRoutes wires the HTTP handlers to the Gin router.
func RegisterRoutes(router *gin.Engine, uc *usecase.AnalysisUseCase, tracker *session.Tracker, alerter *alert.Alerter, hub *ws.Hub, logger *zap.Logger) {
	router.HandleMethodNotAllowed = true
	router.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"success": false, "error": "Metodo no permitido"})
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.POST("/api/analyze", func(c *gin.Context) {
		file, err := c.FormFile("image")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No se recibio ninguna imagen valida"})
			return
		}

		src, err := file.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "No se recibio ninguna imagen valida"})
			return
		}
		defer src.Close()

		// One byte past the cap is enough for the size check to reject;
		// the gateway never buffers an unbounded payload.
		data, err := io.ReadAll(io.LimitReader(src, usecase.MaxUploadSize+1))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Error al leer la imagen"})
			return
		}

		verdict, err := uc.Analyze(c.Request.Context(), data, file.Filename)
		if err != nil {
			status, message := mapAnalysisError(err)
			c.JSON(status, gin.H{"success": false, "error": message})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"isCompliant":  verdict.IsCompliant,
			"confidence":   verdict.Confidence,
			"uniform_type": verdict.UniformType,
			"timestamp":    verdict.Timestamp,
		})
	})

	router.GET("/api/session", func(c *gin.Context) {
		stats, history := tracker.Snapshot()
		c.JSON(http.StatusOK, gin.H{"stats": stats, "history": history})
	})

	router.GET("/api/report", func(c *gin.Context) {
		stats, history := tracker.Snapshot()
		text := report.Generate(stats, history, time.Now())

		filename := fmt.Sprintf("reporte_uniformes_%d.txt", time.Now().Unix())
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(text))
	})

	router.GET("/api/alert", func(c *gin.Context) {
		c.JSON(http.StatusOK, alerter.Snapshot())
	})

	router.POST("/api/alert/dismiss", func(c *gin.Context) {
		alerter.Dismiss()
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	router.GET("/api/alert/ws", func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}
		hub.Register(conn)
		go func() {
			defer hub.Unregister(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})
}

// mapAnalysisError translates pipeline failures into an HTTP status and the
// user-facing message, keeping the legacy error envelope shape.
func mapAnalysisError(err error) (int, string) {
	var validationErr *usecase.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest, validationErr.Message
	case errors.Is(err, usecase.ErrBusy):
		return http.StatusConflict, "Ya hay un analisis en curso"
	case errors.Is(err, usecase.ErrStorage):
		return http.StatusInternalServerError, "Error al guardar la imagen temporal"
	case errors.Is(err, classifier.ErrUnavailable):
		return http.StatusBadGateway, "Modelo no disponible"
	case errors.Is(err, classifier.ErrTimeout):
		return http.StatusGatewayTimeout, "El modelo excedio el tiempo limite"
	case errors.Is(err, classifier.ErrOutput):
		var outputErr *classifier.OutputError
		if errors.As(err, &outputErr) {
			return http.StatusBadGateway, fmt.Sprintf("Error en salida del modelo: %s", strings.TrimSpace(outputErr.Raw))
		}
		return http.StatusBadGateway, "Error en salida del modelo"
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
