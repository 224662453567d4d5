package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/example/uniform-control/internal/classifier"
	"github.com/example/uniform-control/internal/session"
)

const banner = "=============================================="

// Generate renders the session state as a plain-text report. It is a pure
// function of its inputs: the generation time is a parameter, so identical
// inputs always yield identical output. History is expected newest-first,
// the order the tracker stores it in.
func Generate(stats session.Stats, history []session.HistoryEntry, generatedAt time.Time) string {
	var b strings.Builder

	line := func(format string, args ...any) {
		fmt.Fprintf(&b, format, args...)
		b.WriteByte('\n')
	}

	line(banner)
	line("REPORTE DE CONTROL DE UNIFORMES")
	line(banner)
	line("Generado: %s", generatedAt.Format(classifier.TimestampLayout))
	line("")
	line("ESTADISTICAS GENERALES:")
	line("- Total de personas analizadas: %d", stats.Total)
	line("- Uniformes correctos: %d", stats.Compliant)
	line("- Incidencias (uniformes incorrectos): %d", stats.NonCompliant)
	line("- Tasa de cumplimiento: %.1f%%", complianceRate(stats))
	line("")
	line(banner)
	line("REGISTRO DETALLADO DE DETECCIONES:")
	line(banner)
	line("")

	for i, entry := range history {
		status := "INCIDENCIA"
		if entry.Verdict.IsCompliant {
			status = "CORRECTO"
		}
		line("%d. [%s] %s", i+1, status, entry.Verdict.Timestamp)
		line("   Uniforme: %s", entry.Verdict.UniformType)
		line("   Confianza: %d%%", int(math.Round(entry.Verdict.Confidence*100)))
		line("")
	}

	return b.String()
}

// complianceRate is 0.0 for an empty session rather than dividing by zero.
func complianceRate(stats session.Stats) float64 {
	if stats.Total == 0 {
		return 0.0
	}
	return float64(stats.Compliant) / float64(stats.Total) * 100
}
