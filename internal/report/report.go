// Package report persists sweep results to YAML and renders a styled
// terminal summary.
package report

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"gopkg.in/yaml.v3"

	"github.com/rileyhilliard/perfsuite/internal/errors"
	"github.com/rileyhilliard/perfsuite/internal/sweep"
)

// Results is everything one perfsuite run produced. Sections left nil were
// not part of the run.
type Results struct {
	GeneratedAt   time.Time             `yaml:"generated_at"`
	PingLatencyUs float64               `yaml:"ping_latency_us,omitempty"`
	Depth         []*sweep.DepthResults `yaml:"depth,omitempty"`
	Clients       *sweep.ClientsResults `yaml:"clients,omitempty"`
}

// WriteFile marshals results to a YAML file at path.
func WriteFile(path string, r *Results) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return errors.Wrap(err, "Couldn't serialize results")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write results file "+path,
			"Check the directory exists and is writable.")
	}
	return nil
}

// ReadFile loads a results file written by WriteFile.
func ReadFile(path string) (*Results, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't read results file "+path,
			"Check the path is correct.")
	}
	var r Results
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrParse,
			"Results file "+path+" is not valid YAML", "")
	}
	return &r, nil
}

// ConfigureColor applies the configured color mode: "always", "never", or
// "auto" (respect the terminal's advertised capabilities).
func ConfigureColor(mode string) {
	switch mode {
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI)
	default:
		lipgloss.SetColorProfile(termenv.EnvColorProfile())
	}
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
)

// Summary renders a human-readable overview of the results.
func Summary(r *Results) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("perfsuite results"))
	b.WriteString("\n")
	b.WriteString(labelStyle.Render("generated: "))
	b.WriteString(valueStyle.Render(r.GeneratedAt.Format(time.RFC3339)))
	b.WriteString("\n")

	if r.PingLatencyUs > 0 {
		b.WriteString(labelStyle.Render("ping latency: "))
		b.WriteString(valueStyle.Render(fmt.Sprintf("%.1f us", r.PingLatencyUs)))
		b.WriteString("\n")
	}

	for _, d := range r.Depth {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render("depth sweep: " + d.Target))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%10s %14s %14s %12s %12s",
			"depth", "tx lat (us)", "rx lat (us)", "tx Gbit/s", "rx Gbit/s")))
		b.WriteString("\n")
		for i, x := range d.TxLatency.X {
			row := fmt.Sprintf("%10.0f %8.1f ±%4.1f %8.1f ±%4.1f %12.4f %12.4f",
				x,
				d.TxLatency.Mean[i], d.TxLatency.MeanErrHi[i],
				d.RxLatency.Mean[i], d.RxLatency.MeanErrHi[i],
				d.TxBandwidth.Mean[i], d.RxBandwidth.Mean[i])
			b.WriteString(valueStyle.Render(row))
			b.WriteString("\n")
		}
	}

	if r.Clients != nil {
		b.WriteString("\n")
		b.WriteString(headerStyle.Render(fmt.Sprintf("clients sweep (depth %d)", r.Clients.Depth)))
		b.WriteString("\n")
		b.WriteString(labelStyle.Render(fmt.Sprintf("%10s %12s  %s", "clients", "total Gbit/s", "probe usage")))
		b.WriteString("\n")
		for _, p := range r.Clients.Points {
			var probes []string
			for _, ps := range p.Probes {
				probes = append(probes,
					fmt.Sprintf("%s cpu=%.1f%% mem=%.1f%%", ps.Match, ps.CPU, ps.Mem))
			}
			row := fmt.Sprintf("%10d %12.4f  %s", p.Clients, p.TotalGbps, strings.Join(probes, "  "))
			b.WriteString(valueStyle.Render(row))
			b.WriteString("\n")
		}
	}

	return b.String()
}
