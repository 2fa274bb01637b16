package metadata

// Catalog holds the user visible strings of records and of the info strip.
type Catalog struct {
	Unknown             string
	NotAnImage          string
	MetadataUnavailable string
	MetadataFailed      string
	// Notice prefixes warning and error lines in the info strip
	Notice string
	Labels map[FieldKey]string
}

var chinese_labels = map[FieldKey]string{
	Make:         "相机品牌",
	Model:        "相机型号",
	FNumber:      "光圈",
	ExposureTime: "快门速度",
	ISO:          "ISO",
}

// Default has English messages and placeholder with the Chinese strip labels.
var Default = Catalog{
	Unknown:             "unknown",
	NotAnImage:          "not a valid image file",
	MetadataUnavailable: "metadata unavailable",
	MetadataFailed:      "failed to read metadata",
	Notice:              "提示",
	Labels:              chinese_labels,
}

// Chinese is fully localized.
var Chinese = Catalog{
	Unknown:             "未知",
	NotAnImage:          "不是有效的图片文件",
	MetadataUnavailable: "未能读取到EXIF信息",
	MetadataFailed:      "读取EXIF信息失败",
	Notice:              "提示",
	Labels:              chinese_labels,
}

// Catalogs maps the names accepted on the command line to catalogs.
var Catalogs = map[string]Catalog{
	"default": Default,
	"zh":      Chinese,
}

// Label returns the display label of key, the key itself when there is none.
func (c Catalog) Label(key FieldKey) string {
	if l, ok := c.Labels[key]; ok && l != "" {
		return l
	}
	return string(key)
}
