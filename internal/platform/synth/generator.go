// Package synth generates synthetic lab results and delivery delays for
// bulk-loaded tests. All randomness flows through an injected source so
// generation is reproducible under test.
package synth

import (
	"math/rand"
	"strings"
	"sync"
)

// Outcome is a synthesized result triple for one test.
type Outcome struct {
	Result         string
	Interpretation string
	Details        string
}

type rule struct {
	keyword string
	minDays int
	maxDays int
	results []string
	// interpretation per result value, index-aligned with results
	interpretations []string
	details         string
}

// Rules are matched in order; the first keyword found as a substring of
// the lowercased test name wins.
var rules = []rule{
	{
		keyword: "covid", minDays: 1, maxDays: 2,
		results:         []string{"Negativo", "Positivo"},
		interpretations: []string{"No se detectó el virus", "Infección activa"},
		details:         "Prueba PCR realizada correctamente.",
	},
	{
		keyword: "paternity", minDays: 5, maxDays: 10,
		results:         []string{"Inclusión", "Exclusión"},
		interpretations: []string{"Coincidencia de marcadores genéticos", "No hay relación biológica"},
		details:         "Prueba de ADN realizada con precisión.",
	},
	{
		keyword: "blood count", minDays: 1, maxDays: 3,
		results:         []string{"Normal", "Anormal"},
		interpretations: []string{"Valores dentro de los rangos esperados", "Anemia detectada"},
		details:         "Conteo completo de células sanguíneas.",
	},
	{
		keyword: "influenza", minDays: 2, maxDays: 4,
		results:         []string{"Negativo", "Positivo"},
		interpretations: []string{"No se detectó el virus", "Infección viral activa"},
		details:         "Prueba rápida de influenza.",
	},
	{
		keyword: "allergy", minDays: 3, maxDays: 7,
		results:         []string{"Sin alergias", "Alergias detectadas"},
		interpretations: []string{"Sin reacciones", "Reacción alérgica"},
		details:         "Panel de alérgenos completado.",
	},
	{
		keyword: "electrocardiogram", minDays: 1, maxDays: 2,
		results:         []string{"Normal", "Anormal"},
		interpretations: []string{"Ritmo cardíaco regular", "Arritmia detectada"},
		details:         "ECG realizado sin complicaciones.",
	},
	{
		keyword: "antibody", minDays: 3, maxDays: 5,
		results:         []string{"Positivo", "Negativo"},
		interpretations: []string{"Presencia de anticuerpos", "No se detectaron anticuerpos"},
		details:         "Prueba serológica completada.",
	},
	{
		keyword: "hepatitis", minDays: 5, maxDays: 10,
		results:         []string{"Negativo", "Positivo"},
		interpretations: []string{"No se detectó infección", "Infección detectada"},
		details:         "Análisis para hepatitis realizado.",
	},
}

// Fallbacks for names matching no keyword.
const (
	defaultMinDays = 7
	defaultMaxDays = 14
)

var indeterminate = Outcome{
	Result:         "Indeterminado",
	Interpretation: "No se pudo interpretar el resultado",
	Details:        "Datos insuficientes para el análisis.",
}

// Generator is safe for concurrent use: one instance is shared by all
// upload requests, so draws are serialized.
type Generator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewGenerator(src rand.Source) *Generator {
	return &Generator{rng: rand.New(src)}
}

func (g *Generator) intn(n int) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.rng.Intn(n)
}

func match(name string) (rule, bool) {
	lower := strings.ToLower(name)
	for _, r := range rules {
		if strings.Contains(lower, r.keyword) {
			return r, true
		}
	}
	return rule{}, false
}

// DeliveryDelay returns a delivery delay in days for the given test name,
// drawn uniformly from the matching keyword's range, inclusive.
func (g *Generator) DeliveryDelay(name string) int {
	min, max := defaultMinDays, defaultMaxDays
	if r, ok := match(name); ok {
		min, max = r.minDays, r.maxDays
	}
	return min + g.intn(max-min+1)
}

// GenerateOutcome returns a result triple for the given test name. The
// result value is chosen uniformly among the keyword's alternatives; the
// interpretation is fixed per result value. Unmatched names yield the
// indeterminate triple.
func (g *Generator) GenerateOutcome(name string) Outcome {
	r, ok := match(name)
	if !ok {
		return indeterminate
	}
	i := g.intn(len(r.results))
	return Outcome{
		Result:         r.results[i],
		Interpretation: r.interpretations[i],
		Details:        r.details,
	}
}
