package types

// ImageSet collects the image URLs a provider may return for a title.
// Providers populate only the fields their API surfaces; the rest stay
// empty rather than nil pointers since a missing image and an empty URL
// mean the same thing here.
type ImageSet struct {
	Poster   string
	Backdrop string
	Logo     string
	Thumb    string
	Banner   string
}

// ExternalIds carries cross-provider identifiers so a record fetched from
// one source can be correlated with another (e.g. find_by_external_id).
type ExternalIds struct {
	Imdb    string
	Tmdb    string
	Tvdb    string
	Anilist string
	Anidb   string
	Mal     string
	Bangumi string
}

// HasAny reports whether at least one external id is populated.
func (e ExternalIds) HasAny() bool {
	return e.Imdb != "" || e.Tmdb != "" || e.Tvdb != "" || e.Anilist != "" ||
		e.Anidb != "" || e.Mal != "" || e.Bangumi != ""
}

// Merge combines two partial ExternalIds, preferring the receiver's
// non-empty fields and filling gaps from other. Useful when a
// find_by_external_id lookup on a second provider fills in ids a first
// provider's metadata fetch left blank.
func (e ExternalIds) Merge(other ExternalIds) ExternalIds {
	merged := e
	if merged.Imdb == "" {
		merged.Imdb = other.Imdb
	}
	if merged.Tmdb == "" {
		merged.Tmdb = other.Tmdb
	}
	if merged.Tvdb == "" {
		merged.Tvdb = other.Tvdb
	}
	if merged.Anilist == "" {
		merged.Anilist = other.Anilist
	}
	if merged.Anidb == "" {
		merged.Anidb = other.Anidb
	}
	if merged.Mal == "" {
		merged.Mal = other.Mal
	}
	if merged.Bangumi == "" {
		merged.Bangumi = other.Bangumi
	}
	return merged
}

// SeasonInfo summarizes one season of a Tv/Anime title.
type SeasonInfo struct {
	Number       int
	Name         string
	Overview     string
	AirDate      string
	EpisodeCount *int
	PosterURL    string
}

// EpisodeInfo is produced on demand by GetEpisode and never cached, per the
// cache contract (episode data is considered too volatile/low-value to
// warrant a TTL slot next to search and metadata results).
type EpisodeInfo struct {
	ID             string
	Title          string
	Season         int
	Episode        int
	AbsoluteNumber *int
	AirDate        string
	Overview       string
	Runtime        *int
	Rating         *float64
	StillURL       string
	Provider       string
}

// PersonInfo is the cast/crew element shape shared across all three
// providers; Order is the person's ranked order of appearance where
// available (cast only — crew leaves it nil).
type PersonInfo struct {
	ID       string
	Name     string
	Role     string
	ImageURL string
	Order    *int
}

// MediaMetadata is the full detail record returned by a provider's
// GetMetadata call. ContentRating is carried even though none of the three
// shipped providers populates it today; it exists in the upstream shape and
// a future provider (or a richer TMDB append) can fill it without a
// breaking struct change.
type MediaMetadata struct {
	ID            string
	Title         string
	OriginalTitle string
	SortTitle     string
	MediaType     MediaType
	Tagline       string
	Overview      string
	ReleaseDate   string
	EndDate       string
	Runtime       *int
	Rating        *float64
	VoteCount     *int
	Genres        []string
	Tags          []string
	Studios       []string
	Language      string
	ContentRating string
	Status        string
	Images        ImageSet
	ExternalIds   ExternalIds
	Provider      string
	SeasonCount   *int
	EpisodeCount  *int
	Seasons       []SeasonInfo
	Cast          []PersonInfo
	Crew          []PersonInfo
}
