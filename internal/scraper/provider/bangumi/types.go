// Package bangumi implements MetadataProvider against Bangumi (bgm.tv), an
// anime database with strong Chinese-language titles and crew infoboxes.
package bangumi

import "encoding/json"

type searchResponse struct {
	List    []subject `json:"list"`
	Results *int      `json:"results"`
}

type subject struct {
	ID          int        `json:"id"`
	SubjectType int        `json:"type"`
	Name        string     `json:"name"`
	NameCN      string     `json:"name_cn"`
	Summary     string     `json:"summary"`
	Date        string     `json:"date"`
	AirDate     string     `json:"air_date"`
	Images      *images    `json:"images"`
	Eps         *int       `json:"eps"`
	Rating      *rating    `json:"rating"`
	Tags        []tag      `json:"tags"`
	Infobox     []infoBox  `json:"infobox"`
}

type images struct {
	Large  string `json:"large"`
	Common string `json:"common"`
	Medium string `json:"medium"`
	Small  string `json:"small"`
	Grid   string `json:"grid"`
}

type rating struct {
	Score *float64 `json:"score"`
	Total *int     `json:"total"`
}

type tag struct {
	Name  string `json:"name"`
	Count *int   `json:"count"`
}

// infoBox mirrors Bangumi's untagged value union: Value may unmarshal as a
// bare string or as an array of {v} items, so it's kept as raw JSON and
// inspected lazily by asString/asList.
type infoBox struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

func (b infoBox) asString() (string, bool) {
	var s string
	if err := json.Unmarshal(b.Value, &s); err == nil {
		return s, true
	}
	return "", false
}

func (b infoBox) asList() ([]string, bool) {
	var items []struct {
		V string `json:"v"`
	}
	if err := json.Unmarshal(b.Value, &items); err != nil {
		return nil, false
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item.V != "" {
			out = append(out, item.V)
		}
	}
	return out, true
}

type episode struct {
	ID          int      `json:"id"`
	EpisodeType int      `json:"type"`
	Name        string   `json:"name"`
	NameCN      string   `json:"name_cn"`
	Sort        float64  `json:"sort"`
	Ep          *float64 `json:"ep"`
	Airdate     string   `json:"airdate"`
	Duration    string   `json:"duration"`
	Desc        string   `json:"desc"`
}

type episodesResponse struct {
	Data  []episode `json:"data"`
	Total int       `json:"total"`
}

const (
	subjectTypeAnime = 2
	subjectTypeMovie = 6
)
