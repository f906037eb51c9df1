package networks

import "github.com/gyaneshwarpardhi/bayesnet/internal/bayes"

// Biodigester builds the anaerobic digester diagnosis network.
//
// Two hidden roots (microbial state, operating state) drive the real physical
// quantities, and every physical quantity is observed through a noisy sensor.
func Biodigester() (*bayes.Network, error) {
	bn := bayes.NewNetwork()
	var err error
	add := func(name string, parents []string, states []string, rows ...bayes.Entry) {
		if err != nil {
			return
		}
		_, err = bn.AddDiscreteNode(name, parents, bayes.ParseStates(states...), rows)
	}
	type p = map[string]float64
	row := bayes.Row

	// Roots.
	add("EstadoMicrobiano", nil, []string{"Bueno", "Degradado"},
		row(nil, p{"Bueno": 0.85, "Degradado": 0.15}),
	)
	add("EstadoOperativo", nil, []string{"Normal", "FallaMecanica", "Fuga"},
		row(nil, p{"Normal": 0.95, "FallaMecanica": 0.03, "Fuga": 0.02}),
	)

	// Physical quantities.
	add("TemperaturaReal", []string{"EstadoMicrobiano"}, []string{"Baja", "Normal", "Alta"},
		row([]string{"Bueno"}, p{"Normal": 0.9, "Baja": 0.05, "Alta": 0.05}),
		row([]string{"Degradado"}, p{"Baja": 0.6, "Normal": 0.3, "Alta": 0.1}),
	)
	add("pHReal", []string{"EstadoMicrobiano"}, []string{"Acido", "Neutro", "Alcalino"},
		row([]string{"Bueno"}, p{"Neutro": 0.85, "Acido": 0.1, "Alcalino": 0.05}),
		row([]string{"Degradado"}, p{"Acido": 0.6, "Neutro": 0.3, "Alcalino": 0.1}),
	)
	add("CaudalReal", []string{"EstadoOperativo"}, []string{"Bajo", "Normal", "Alto"},
		row([]string{"Normal"}, p{"Normal": 0.9, "Bajo": 0.05, "Alto": 0.05}),
		row([]string{"Fuga"}, p{"Alto": 0.7, "Normal": 0.2, "Bajo": 0.1}),
		row([]string{"FallaMecanica"}, p{"Bajo": 0.8, "Normal": 0.15, "Alto": 0.05}),
	)
	add("PresionReal", []string{"EstadoOperativo"}, []string{"Baja", "Normal", "Alta"},
		row([]string{"Normal"}, p{"Normal": 0.9, "Baja": 0.05, "Alta": 0.05}),
		row([]string{"Fuga"}, p{"Baja": 0.6, "Normal": 0.3, "Alta": 0.1}),
		row([]string{"FallaMecanica"}, p{"Alta": 0.7, "Normal": 0.2, "Baja": 0.1}),
	)
	add("ProduccionGasReal", []string{"EstadoMicrobiano", "CaudalReal"}, []string{"Baja", "Normal", "Alta"},
		row([]string{"Bueno", "Normal"}, p{"Normal": 0.85, "Alta": 0.10, "Baja": 0.05}),
		row([]string{"Bueno", "Bajo"}, p{"Normal": 0.5, "Alta": 0.1, "Baja": 0.4}),
		row([]string{"Bueno", "Alto"}, p{"Normal": 0.7, "Alta": 0.25, "Baja": 0.05}),
		row([]string{"Degradado", "Normal"}, p{"Normal": 0.2, "Alta": 0.1, "Baja": 0.7}),
		row([]string{"Degradado", "Bajo"}, p{"Normal": 0.09, "Alta": 0.01, "Baja": 0.9}),
		row([]string{"Degradado", "Alto"}, p{"Normal": 0.1, "Alta": 0.2, "Baja": 0.7}),
	)

	// Sensors.
	add("T_sensor", []string{"TemperaturaReal"}, []string{"baja", "normal", "alta"},
		row([]string{"Alta"}, p{"alta": 0.92, "normal": 0.07, "baja": 0.01}),
		row([]string{"Normal"}, p{"normal": 0.9, "baja": 0.05, "alta": 0.05}),
		row([]string{"Baja"}, p{"baja": 0.95, "normal": 0.04, "alta": 0.01}),
	)
	add("pH_sensor", []string{"pHReal"}, []string{"acido", "neutro", "alcalino"},
		row([]string{"Neutro"}, p{"neutro": 0.9, "acido": 0.05, "alcalino": 0.05}),
		row([]string{"Acido"}, p{"acido": 0.9, "neutro": 0.05, "alcalino": 0.05}),
		row([]string{"Alcalino"}, p{"alcalino": 0.9, "neutro": 0.05, "acido": 0.05}),
	)
	add("Flow_sensor", []string{"CaudalReal"}, []string{"bajo", "normal", "alto"},
		row([]string{"Bajo"}, p{"bajo": 0.95, "normal": 0.04, "alto": 0.01}),
		row([]string{"Normal"}, p{"normal": 0.9, "bajo": 0.05, "alto": 0.05}),
		row([]string{"Alto"}, p{"alto": 0.92, "normal": 0.06, "bajo": 0.02}),
	)
	add("Gas_sensor", []string{"ProduccionGasReal"}, []string{"bajo", "normal", "alto"},
		row([]string{"Baja"}, p{"bajo": 0.95, "normal": 0.04, "alto": 0.01}),
		row([]string{"Normal"}, p{"normal": 0.9, "bajo": 0.05, "alto": 0.05}),
		row([]string{"Alta"}, p{"alto": 0.92, "normal": 0.06, "bajo": 0.02}),
	)
	add("Presion_sensor", []string{"PresionReal"}, []string{"baja", "normal", "alta"},
		row([]string{"Alta"}, p{"alta": 0.92, "normal": 0.06, "baja": 0.02}),
		row([]string{"Normal"}, p{"normal": 0.9, "baja": 0.05, "alta": 0.05}),
		row([]string{"Baja"}, p{"baja": 0.95, "normal": 0.04, "alta": 0.01}),
	)

	if err != nil {
		return nil, err
	}
	return bn, nil
}
