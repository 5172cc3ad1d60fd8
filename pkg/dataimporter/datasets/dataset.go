package datasets

type DataSet struct {
	Identifier    string
	DataSourceRef string `json:"-"`
	Format        DataSetFormat

	Provider Provider

	Source               string
	SourceAuthentication SourceAuthentication `json:"-"`
}

type DataSource struct {
	Identifier string
	Region     string
	Provider   Provider
	Datasets   []DataSet

	SourceAuthentication *SourceAuthentication
}

type SourceAuthentication struct {
	Query  map[string]string
	Header map[string]string
}

type DataSetFormat string

const (
	DataSetFormatGTFSSchedule DataSetFormat = "gtfs-schedule"
)

type Provider struct {
	Name    string
	Website string
}
