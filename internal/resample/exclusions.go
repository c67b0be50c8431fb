package resample

// DefaultExclusions lists channels known to carry malformed sensor tags or
// spreadsheet export artifacts. They are dropped from every run unless the
// configuration supplies its own list.
var DefaultExclusions = []string{
	"engine_speed_50909",
	"fuel_5l_consumed_50909",
	"boost_pressure_50909",
	"boost_pressure_54909",
	"fuel_5l_consumed_54909",
	"engine_speed_54909",
	"fuel_5l_consumed_55909",
	"engine_speed_55909",
	"boost_pressure_55909",
	"boost_pressure_56909",
	"fuel_5l_consumed_56909",
	"engine_speed_56909",
	"fuel_5l_consumed_56912",
	"engine_speed_56912",
	"boost_pressure_56912",
	"boost_pressure_59909",
	"fuel_5l_consumed_59909",
	"engine_speed_59909",
	"fuel_5l_consumed_59912",
	"engine_speed_59912",
	"Unnamed: 30",
	"Standard Deviation:",
	"Unnamed: 31",
	"engine_speed_54912",
	"boost_pressure_54912",
	"fuel_5l_consumed_54912",
	"boost_pressure_59912",
	"boost_pressure_50912",
	"engine_speed_50912",
	"fuel_5l_consumed_50912",
	"engine_speed_55912",
	"boost_pressure_55912",
	"fuel_5l_consumed_55912",
}
