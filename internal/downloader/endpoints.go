package downloader

// Endpoints holds the URL templates of every host. Each template takes the
// file identifier as its only %s verb.
type Endpoints struct {
	Pillowcase      string
	Pixeldrain      string
	Froste          string
	ImgurPage       string
	KrakenfilesJSON string
}

// DefaultEndpoints returns the public host endpoints.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		Pillowcase:      "https://api.pillows.su/api/get/%s",
		Pixeldrain:      "https://pixeldrain.com/api/file/%s",
		Froste:          "https://music.froste.lol/song/%s/file",
		ImgurPage:       "https://imgur.gg/f/%s",
		KrakenfilesJSON: "https://krakenfiles.com/json/%s",
	}
}
