package schema

var (
	requiredText = func(name string) Rule {
		return Rule{Name: name, Type: String, Required: true, NonEmpty: true}
	}
	optionalText = func(name string) Rule {
		return Rule{Name: name, Type: String}
	}
	textList = func(name string, required bool) Rule {
		return Rule{Name: name, Type: Array, Required: required, NonEmpty: required, Items: &Rule{Type: String}}
	}
)

var sessionRules = []Rule{
	requiredText("nombreproyecto"),
	requiredText("titulo"),
	requiredText("area"),
	requiredText("proposito"),
	{
		Name: "competencias", Type: Array, Required: true, NonEmpty: true,
		Items: &Rule{Type: Object, Fields: []Rule{
			requiredText("competencia"),
			textList("capacidades", true),
			textList("desempenos", true),
			textList("criterios", false),
		}},
	},
	{
		Name: "secuencia", Type: Object, Required: true,
		Fields: []Rule{
			requiredText("inicio"),
			requiredText("desarrollo"),
			requiredText("cierre"),
		},
	},
	textList("materiales", false),
	optionalText("evidencia"),
	optionalText("instrumento"),
}

var classRules = []Rule{
	requiredText("institucion"),
	requiredText("docente"),
	requiredText("aula"),
	optionalText("seccion"),
	{
		Name: "estudiantes", Type: Array, Required: true, NonEmpty: true,
		Items: &Rule{Type: Object, Fields: []Rule{
			requiredText("nombre"),
			// The birth date format is not enforced; unparseable dates render as
			// an unknown age.
			{Name: "fechanacimiento", Type: String, Required: true},
		}},
	},
}
