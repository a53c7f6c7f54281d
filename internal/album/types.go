package album

// Album is one directory of frames under the albums root.
type Album struct {
	ID       string   `json:"id"`
	Path     string   `json:"path"`
	Metadata Metadata `json:"metadata"`
}

// Metadata mirrors the metadata.json file kept in every album directory.
type Metadata struct {
	Name         string        `json:"name"`
	Description  string        `json:"description"`
	Images       []string      `json:"images"`
	ShootingInfo *ShootingInfo `json:"shootingInfo,omitempty"`
	CreatedAt    string        `json:"createdAt"`
	UpdatedAt    string        `json:"updatedAt"`
}

// ShootingInfo summarizes the camera settings of the first frame.
type ShootingInfo struct {
	Camera   string    `json:"camera,omitempty"`
	Lens     string    `json:"lens,omitempty"`
	Date     string    `json:"date,omitempty"`
	Location string    `json:"location,omitempty"`
	Settings *Settings `json:"settings,omitempty"`
}

// Settings holds exposure parameters in display form.
type Settings struct {
	ISO          int    `json:"iso,omitempty"`
	Aperture     string `json:"aperture,omitempty"`
	ShutterSpeed string `json:"shutterSpeed,omitempty"`
	FocalLength  string `json:"focalLength,omitempty"`
}

// ImageInfo describes a single frame file.
type ImageInfo struct {
	Filename   string         `json:"filename"`
	Path       string         `json:"path"`
	Size       int64          `json:"size"`
	Dimensions *Dimensions    `json:"dimensions,omitempty"`
	Exif       map[string]any `json:"exif"`
}

// Dimensions is an image size in pixels.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}
