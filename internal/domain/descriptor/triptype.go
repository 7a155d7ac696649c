package descriptor

// TripType is a catalog trip category with its query expansion keywords.
type TripType struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords"`
	// Expansion is appended to queries filtered by this trip type.
	Expansion string `json:"-"`
}

var tripTypes = []TripType{
	{
		ID:          "aventura",
		Name:        "Aventura",
		Description: "Viajes llenos de adrenalina, deportes extremos y naturaleza salvaje",
		Keywords:    []string{"aventura", "deportes extremos", "adrenalina", "naturaleza salvaje"},
		Expansion:   "aventura, adrenalina, deportes extremos, naturaleza salvaje",
	},
	{
		ID:          "romantico",
		Name:        "Romántico",
		Description: "Destinos perfectos para parejas, lunas de miel y escapadas románticas",
		Keywords:    []string{"romántico", "parejas", "luna de miel", "cenas especiales"},
		Expansion:   "romántico, parejas, luna de miel, cenas especiales",
	},
	{
		ID:          "historia",
		Name:        "Historia y Cultura",
		Description: "Explora sitios históricos, museos y patrimonio cultural",
		Keywords:    []string{"histórico", "cultural", "museos", "monumentos", "patrimonio"},
		Expansion:   "histórico, cultural, museos, monumentos, patrimonio",
	},
	{
		ID:          "naturaleza",
		Name:        "Naturaleza",
		Description: "Conexión con la naturaleza, ecoturismo y vida silvestre",
		Keywords:    []string{"naturaleza", "ecológico", "vida silvestre", "paisajes"},
		Expansion:   "naturaleza, ecológico, vida silvestre, paisajes",
	},
	{
		ID:          "familiar",
		Name:        "Familiar",
		Description: "Destinos ideales para viajar con niños y toda la familia",
		Keywords:    []string{"familiar", "niños", "actividades en familia", "diversión"},
		Expansion:   "familiar, niños, actividades en familia, diversión",
	},
	{
		ID:          "playa",
		Name:        "Playa",
		Description: "Sol, arena y mar en los mejores destinos costeros",
		Keywords:    []string{"playa", "sol", "mar", "arena", "costa"},
		Expansion:   "playa, sol, mar, arena, costa",
	},
	{
		ID:          "ciudad",
		Name:        "Ciudad",
		Description: "Experiencias urbanas, compras y vida nocturna",
		Keywords:    []string{"ciudad", "urbano", "compras", "vida nocturna"},
		Expansion:   "ciudad, urbano, compras, vida nocturna",
	},
	{
		ID:          "gastronomico",
		Name:        "Gastronómico",
		Description: "Descubre la mejor gastronomía y cocina local",
		Keywords:    []string{"gastronomía", "comida", "restaurantes", "cocina local"},
		Expansion:   "gastronomía, comida, restaurantes, cocina local",
	},
	{
		ID:          "relax",
		Name:        "Relax y Bienestar",
		Description: "Spas, descanso y tranquilidad absoluta",
		Keywords:    []string{"relax", "spa", "descanso", "tranquilidad", "bienestar"},
		Expansion:   "relax, spa, descanso, tranquilidad, bienestar",
	},
	{
		ID:          "fotografia",
		Name:        "Fotografía",
		Description: "Paisajes impresionantes y lugares fotogénicos",
		Keywords:    []string{"fotografía", "paisajes", "vistas panorámicas"},
		Expansion:   "fotografía, paisajes, vistas panorámicas",
	},
}

var tripTypesByID = func() map[string]TripType {
	m := make(map[string]TripType, len(tripTypes))
	for _, tt := range tripTypes {
		m[tt.ID] = tt
	}
	return m
}()

// TripTypes returns all trip categories in display order.
func TripTypes() []TripType {
	out := make([]TripType, len(tripTypes))
	copy(out, tripTypes)
	return out
}

// LookupTripType finds a trip category by id.
func LookupTripType(id string) (TripType, bool) {
	tt, ok := tripTypesByID[id]
	return tt, ok
}
