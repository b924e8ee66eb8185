package params

// Names of the parameters every pipeline endpoint understands.
const (
	DateFrom          = "date_from"
	DateTo            = "date_to"
	AggregateBy       = "aggregate_by"
	RollingDays       = "rolling_days"
	PivotBy           = "pivot_by"
	PivotValue        = "pivot_value"
	SortBy            = "sort_by"
	Limit             = "limit"
	LimitBy           = "limit_by"
	Select            = "select"
	KeepZeros         = "keep_zeros"
	AddTotalRegion    = "add_total_region"
	AddTotalCommodity = "add_total_commodity"
	Language          = "language"
	Currency          = "currency"
	PricingScenario   = "pricing_scenario"
	CommodityGrouping = "commodity_grouping"
	Format            = "format"
	NestInData        = "nest_in_data"
	Download          = "download"
	APIKey            = "api_key"
	UseEU             = "use_eu"
	CheckComplete     = "check_complete"
	BypassMaintenance = "bypass_maintenance"
	Postcompute       = "postcompute"
)

// Shared is the schema common to every pipeline endpoint.
func Shared() Schema {
	return Schema{
		{Name: DateFrom, Type: Date, Help: "start date (YYYY-MM-DD or day offset from today)"},
		{Name: DateTo, Type: Date, Help: "end date (YYYY-MM-DD or day offset from today)"},
		{Name: AggregateBy, Type: List, Help: "columns to aggregate by"},
		{Name: RollingDays, Type: Integer, Validate: "min=1,max=365", Help: "trailing mean window in days"},
		{Name: PivotBy, Type: List, Help: "columns to pivot into headers"},
		{Name: PivotValue, Type: List, Default: []string{"value_tonne"}, Help: "value columns to pivot"},
		{Name: SortBy, Type: List, Help: "asc(col) or desc(col); bare names sort descending"},
		{Name: Limit, Type: Integer, Validate: "min=1", Help: "number of groups to keep"},
		{Name: LimitBy, Type: List, Help: "columns within which limit applies"},
		{Name: Select, Type: List, Help: "columns to keep; new(old) renames"},
		{Name: KeepZeros, Type: Boolean, Default: true, Help: "keep rows whose value_eur and value_tonne are both zero"},
		{Name: AddTotalRegion, Type: Boolean, Default: false, Help: "append a Total region row"},
		{Name: AddTotalCommodity, Type: Boolean, Default: false, Help: "append a Total commodity row"},
		{Name: Language, Type: String, Default: "en", Help: "language code for translated output"},
		{Name: Currency, Type: List, Default: []string{"EUR"}, Upper: true, Validate: "dive,iso4217", Help: "currencies to value trades in"},
		{Name: PricingScenario, Type: List, Default: []string{"default"}, Help: "pricing scenarios"},
		{Name: CommodityGrouping, Type: String, Default: "default", Help: "commodity grouping"},
		{Name: Format, Type: String, Default: "json", Help: "json, csv or geojson"},
		{Name: NestInData, Type: Boolean, Default: true, Help: "wrap json rows under data"},
		{Name: Download, Type: Boolean, Default: false, Help: "return as attachment"},
		{Name: APIKey, Type: String, Help: "api key for privileged queries"},
		{Name: UseEU, Type: Boolean, Default: true, Help: "label EU members as EU instead of EU28"},
		{Name: CheckComplete, Type: Boolean, Default: true, Help: "reject queries over incomplete data"},
		{Name: BypassMaintenance, Type: Boolean, Default: false, Help: "ignore the maintenance flag"},
		{Name: Postcompute, Type: String, Help: "named rescaling applied after pivot"},
	}
}
