package sources

import (
	"slices"

	"github.com/mr1hm/go-hazard-watch/internal/models"
)

// The volcano catalog is versioned with the code; edit these tables to
// change status or alert levels.

var activeVolcanoes = []models.Volcano{
	{ID: "etna", Name: "Etna", Country: "Italy", Region: "Sicily", Latitude: 37.751, Longitude: 14.993, ElevationM: 3357, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch, ActivitySummary: "Intermittent Strombolian activity and lava fountaining at the summit craters."},
	{ID: "stromboli", Name: "Stromboli", Country: "Italy", Region: "Aeolian Islands", Latitude: 38.789, Longitude: 15.213, ElevationM: 924, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelAdvisory},
	{ID: "vesuvius", Name: "Vesuvius", Country: "Italy", Region: "Campania", Latitude: 40.821, Longitude: 14.426, ElevationM: 1281, Type: "Stratovolcano", Status: "Dormant", LastEruptionDate: "1944", AlertLevel: models.AlertLevelNormal},
	{ID: "kilauea", Name: "Kīlauea", Country: "United States", Region: "Hawaii", Latitude: 19.421, Longitude: -155.287, ElevationM: 1222, Type: "Shield", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch, ActivitySummary: "Episodic lava fountaining confined to Halemaʻumaʻu crater."},
	{ID: "mauna-loa", Name: "Mauna Loa", Country: "United States", Region: "Hawaii", Latitude: 19.475, Longitude: -155.608, ElevationM: 4169, Type: "Shield", Status: "Active", LastEruptionDate: "2022", AlertLevel: models.AlertLevelNormal},
	{ID: "mount-st-helens", Name: "Mount St. Helens", Country: "United States", Region: "Washington", Latitude: 46.200, Longitude: -122.180, ElevationM: 2549, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2008", AlertLevel: models.AlertLevelNormal},
	{ID: "popocatepetl", Name: "Popocatépetl", Country: "Mexico", Region: "Puebla", Latitude: 19.023, Longitude: -98.622, ElevationM: 5393, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelAdvisory, ActivitySummary: "Frequent low-intensity exhalations of gas and ash."},
	{ID: "colima", Name: "Colima", Country: "Mexico", Region: "Jalisco", Latitude: 19.514, Longitude: -103.620, ElevationM: 3850, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2019", AlertLevel: models.AlertLevelNormal},
	{ID: "fuego", Name: "Fuego", Country: "Guatemala", Region: "Sacatepéquez", Latitude: 14.473, Longitude: -90.880, ElevationM: 3763, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch, ActivitySummary: "Explosions with ash plumes and pyroclastic flows in southern ravines."},
	{ID: "cotopaxi", Name: "Cotopaxi", Country: "Ecuador", Region: "Cotopaxi", Latitude: -0.677, Longitude: -78.436, ElevationM: 5911, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2023", AlertLevel: models.AlertLevelAdvisory},
	{ID: "sangay", Name: "Sangay", Country: "Ecuador", Region: "Morona-Santiago", Latitude: -2.005, Longitude: -78.341, ElevationM: 5286, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelAdvisory},
	{ID: "villarrica", Name: "Villarrica", Country: "Chile", Region: "Araucanía", Latitude: -39.420, Longitude: -71.930, ElevationM: 2847, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2024", AlertLevel: models.AlertLevelAdvisory},
	{ID: "sabancaya", Name: "Sabancaya", Country: "Peru", Region: "Arequipa", Latitude: -15.787, Longitude: -71.857, ElevationM: 5960, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelNormal},
	{ID: "fuji", Name: "Fuji", Country: "Japan", Region: "Honshu", Latitude: 35.361, Longitude: 138.728, ElevationM: 3776, Type: "Stratovolcano", Status: "Dormant", LastEruptionDate: "1707", AlertLevel: models.AlertLevelNormal},
	{ID: "sakurajima", Name: "Sakurajima", Country: "Japan", Region: "Kyushu", Latitude: 31.593, Longitude: 130.657, ElevationM: 1117, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWarning, ActivitySummary: "Frequent explosive eruptions with ballistic ejecta; entry restricted near the summit craters."},
	{ID: "aso", Name: "Aso", Country: "Japan", Region: "Kyushu", Latitude: 32.884, Longitude: 131.104, ElevationM: 1592, Type: "Caldera", Status: "Active", LastEruptionDate: "2021", AlertLevel: models.AlertLevelNormal},
	{ID: "suwanosejima", Name: "Suwanosejima", Country: "Japan", Region: "Ryukyu Islands", Latitude: 29.638, Longitude: 129.714, ElevationM: 796, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelAdvisory},
	{ID: "merapi", Name: "Merapi", Country: "Indonesia", Region: "Java", Latitude: -7.540, Longitude: 110.446, ElevationM: 2910, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWarning, ActivitySummary: "Lava dome growth with frequent incandescent avalanches to the southwest."},
	{ID: "semeru", Name: "Semeru", Country: "Indonesia", Region: "Java", Latitude: -8.108, Longitude: 112.922, ElevationM: 3676, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch},
	{ID: "krakatau", Name: "Anak Krakatau", Country: "Indonesia", Region: "Sunda Strait", Latitude: -6.102, Longitude: 105.423, ElevationM: 155, Type: "Caldera", Status: "Active", LastEruptionDate: "2023", AlertLevel: models.AlertLevelAdvisory},
	{ID: "sinabung", Name: "Sinabung", Country: "Indonesia", Region: "Sumatra", Latitude: 3.170, Longitude: 98.392, ElevationM: 2460, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2021", AlertLevel: models.AlertLevelNormal},
	{ID: "lewotobi-laki-laki", Name: "Lewotobi Laki-laki", Country: "Indonesia", Region: "Flores", Latitude: -8.542, Longitude: 122.775, ElevationM: 1584, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWarning, ActivitySummary: "Repeated explosive eruptions with tall ash columns; exclusion zone in force."},
	{ID: "mayon", Name: "Mayon", Country: "Philippines", Region: "Luzon", Latitude: 13.257, Longitude: 123.685, ElevationM: 2462, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2023", AlertLevel: models.AlertLevelAdvisory},
	{ID: "taal", Name: "Taal", Country: "Philippines", Region: "Luzon", Latitude: 14.002, Longitude: 120.993, ElevationM: 311, Type: "Caldera", Status: "Active", LastEruptionDate: "2022", AlertLevel: models.AlertLevelAdvisory},
	{ID: "kanlaon", Name: "Kanlaon", Country: "Philippines", Region: "Negros", Latitude: 10.412, Longitude: 123.132, ElevationM: 2435, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch},
	{ID: "pinatubo", Name: "Pinatubo", Country: "Philippines", Region: "Luzon", Latitude: 15.130, Longitude: 120.350, ElevationM: 1486, Type: "Stratovolcano", Status: "Dormant", LastEruptionDate: "1991", AlertLevel: models.AlertLevelNormal},
	{ID: "ruapehu", Name: "Ruapehu", Country: "New Zealand", Region: "North Island", Latitude: -39.280, Longitude: 175.570, ElevationM: 2797, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2007", AlertLevel: models.AlertLevelNormal},
	{ID: "whakaari", Name: "Whakaari / White Island", Country: "New Zealand", Region: "Bay of Plenty", Latitude: -37.520, Longitude: 177.180, ElevationM: 321, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2019", AlertLevel: models.AlertLevelNormal},
	{ID: "erebus", Name: "Erebus", Country: "Antarctica", Region: "Ross Island", Latitude: -77.530, Longitude: 167.170, ElevationM: 3794, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2025", AlertLevel: models.AlertLevelNormal},
	{ID: "nyiragongo", Name: "Nyiragongo", Country: "DR Congo", Region: "Virunga", Latitude: -1.520, Longitude: 29.250, ElevationM: 3470, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2021", AlertLevel: models.AlertLevelAdvisory},
	{ID: "erta-ale", Name: "Erta Ale", Country: "Ethiopia", Region: "Afar", Latitude: 13.600, Longitude: 40.670, ElevationM: 613, Type: "Shield", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelNormal},
	{ID: "ol-doinyo-lengai", Name: "Ol Doinyo Lengai", Country: "Tanzania", Region: "Arusha", Latitude: -2.764, Longitude: 35.914, ElevationM: 2962, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2019", AlertLevel: models.AlertLevelNormal},
	{ID: "piton-de-la-fournaise", Name: "Piton de la Fournaise", Country: "France", Region: "Réunion", Latitude: -21.244, Longitude: 55.708, ElevationM: 2632, Type: "Shield", Status: "Active", LastEruptionDate: "2023", AlertLevel: models.AlertLevelNormal},
	{ID: "svartsengi", Name: "Svartsengi (Sundhnúkur)", Country: "Iceland", Region: "Reykjanes", Latitude: 63.880, Longitude: -22.430, ElevationM: 140, Type: "Fissure vent", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch, ActivitySummary: "Recurring fissure eruptions with magma accumulation beneath Svartsengi."},
	{ID: "hekla", Name: "Hekla", Country: "Iceland", Region: "South Iceland", Latitude: 63.980, Longitude: -19.700, ElevationM: 1491, Type: "Stratovolcano", Status: "Dormant", LastEruptionDate: "2000", AlertLevel: models.AlertLevelNormal},
	{ID: "katla", Name: "Katla", Country: "Iceland", Region: "South Iceland", Latitude: 63.630, Longitude: -19.050, ElevationM: 1490, Type: "Subglacial", Status: "Restless", LastEruptionDate: "1918", AlertLevel: models.AlertLevelNormal},
	{ID: "klyuchevskoy", Name: "Klyuchevskoy", Country: "Russia", Region: "Kamchatka", Latitude: 56.056, Longitude: 160.642, ElevationM: 4754, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch},
	{ID: "shiveluch", Name: "Shiveluch", Country: "Russia", Region: "Kamchatka", Latitude: 56.653, Longitude: 161.360, ElevationM: 3283, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWarning, ActivitySummary: "Lava dome extrusion with explosive collapse events; ash hazard to aviation."},
	{ID: "bezymianny", Name: "Bezymianny", Country: "Russia", Region: "Kamchatka", Latitude: 55.972, Longitude: 160.595, ElevationM: 2882, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2024", AlertLevel: models.AlertLevelAdvisory},
	{ID: "great-sitkin", Name: "Great Sitkin", Country: "United States", Region: "Alaska", Latitude: 52.076, Longitude: -176.130, ElevationM: 1740, Type: "Stratovolcano", Status: "Erupting", LastEruptionDate: "2025", AlertLevel: models.AlertLevelWatch},
	{ID: "shishaldin", Name: "Shishaldin", Country: "United States", Region: "Alaska", Latitude: 54.756, Longitude: -163.970, ElevationM: 2857, Type: "Stratovolcano", Status: "Active", LastEruptionDate: "2023", AlertLevel: models.AlertLevelAdvisory},
	{ID: "spurr", Name: "Mount Spurr", Country: "United States", Region: "Alaska", Latitude: 61.299, Longitude: -152.251, ElevationM: 3374, Type: "Stratovolcano", Status: "Restless", LastEruptionDate: "1992", AlertLevel: models.AlertLevelAdvisory},
}

var superVolcanoes = []models.Volcano{
	{ID: "yellowstone", Name: "Yellowstone", Country: "United States", Region: "Wyoming", Latitude: 44.430, Longitude: -110.670, ElevationM: 2805, Type: "Caldera", Status: "Dormant", LastEruptionDate: "640,000 years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "long-valley", Name: "Long Valley", Country: "United States", Region: "California", Latitude: 37.700, Longitude: -118.870, ElevationM: 3390, Type: "Caldera", Status: "Dormant", LastEruptionDate: "760,000 years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "valles", Name: "Valles", Country: "United States", Region: "New Mexico", Latitude: 35.870, Longitude: -106.570, ElevationM: 3430, Type: "Caldera", Status: "Dormant", LastEruptionDate: "1.25 million years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "la-garita", Name: "La Garita", Country: "United States", Region: "Colorado", Latitude: 37.900, Longitude: -106.900, ElevationM: 4000, Type: "Caldera", Status: "Extinct", LastEruptionDate: "28 million years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "toba", Name: "Toba", Country: "Indonesia", Region: "Sumatra", Latitude: 2.580, Longitude: 98.830, ElevationM: 2157, Type: "Caldera", Status: "Dormant", LastEruptionDate: "74,000 years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "campi-flegrei", Name: "Campi Flegrei", Country: "Italy", Region: "Campania", Latitude: 40.827, Longitude: 14.139, ElevationM: 458, Type: "Caldera", Status: "Restless", LastEruptionDate: "1538", AlertLevel: models.AlertLevelAdvisory, ActivitySummary: "Ongoing ground uplift and shallow seismic swarms beneath Pozzuoli."},
	{ID: "taupo", Name: "Taupō", Country: "New Zealand", Region: "North Island", Latitude: -38.820, Longitude: 176.000, ElevationM: 760, Type: "Caldera", Status: "Dormant", LastEruptionDate: "232 CE", AlertLevel: models.AlertLevelNormal},
	{ID: "whakamaru", Name: "Whakamaru", Country: "New Zealand", Region: "North Island", Latitude: -38.420, Longitude: 175.850, ElevationM: 500, Type: "Caldera", Status: "Extinct", LastEruptionDate: "340,000 years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "aira", Name: "Aira", Country: "Japan", Region: "Kyushu", Latitude: 31.670, Longitude: 130.700, ElevationM: 1117, Type: "Caldera", Status: "Active", LastEruptionDate: "22,000 years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "kikai", Name: "Kikai", Country: "Japan", Region: "Ryukyu Islands", Latitude: 30.789, Longitude: 130.308, ElevationM: 704, Type: "Caldera", Status: "Active", LastEruptionDate: "7,300 years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "cerro-galan", Name: "Cerro Galán", Country: "Argentina", Region: "Catamarca", Latitude: -25.920, Longitude: -66.920, ElevationM: 6100, Type: "Caldera", Status: "Dormant", LastEruptionDate: "2.1 million years ago", AlertLevel: models.AlertLevelNormal},
	{ID: "pacana", Name: "Pacana", Country: "Chile", Region: "Antofagasta", Latitude: -23.100, Longitude: -67.500, ElevationM: 5000, Type: "Caldera", Status: "Extinct", LastEruptionDate: "4 million years ago", AlertLevel: models.AlertLevelNormal},
}

// ActiveVolcanoes returns a copy of the active catalog.
func ActiveVolcanoes() []models.Volcano {
	return withCategory(activeVolcanoes, models.VolcanoCategoryActive)
}

// SuperVolcanoes returns a copy of the supervolcano catalog.
func SuperVolcanoes() []models.Volcano {
	return withCategory(superVolcanoes, models.VolcanoCategorySuper)
}

// Volcanoes returns both catalogs, active first.
func Volcanoes() []models.Volcano {
	return append(ActiveVolcanoes(), SuperVolcanoes()...)
}

func VolcanoByID(id string) (models.Volcano, bool) {
	all := Volcanoes()
	i := slices.IndexFunc(all, func(v models.Volcano) bool { return v.ID == id })
	if i < 0 {
		return models.Volcano{}, false
	}
	return all[i], true
}

func withCategory(src []models.Volcano, category models.VolcanoCategory) []models.Volcano {
	out := slices.Clone(src)
	for i := range out {
		out[i].Category = category
	}
	return out
}
