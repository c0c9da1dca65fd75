package model

// Artist is the display shape of one imdbraw.name_basics row. Values stay
// exactly as staged; there is no identity beyond what is displayed.
type Artist struct {
	Nconst            string `json:"nconst"`
	PrimaryName       string `json:"primary_name"`
	BirthYear         string `json:"birth_year"`
	DeathYear         string `json:"death_year"`
	PrimaryProfession string `json:"primary_profession"`
	KnownForTitles    string `json:"known_for_titles"`
}

func ArtistFromRow(row map[string]string) Artist {
	return Artist{
		Nconst:            row["nconst"],
		PrimaryName:       row["primary_name"],
		BirthYear:         row["birth_year"],
		DeathYear:         row["death_year"],
		PrimaryProfession: row["primary_profession"],
		KnownForTitles:    row["known_for_titles"],
	}
}

// Player is the display shape of one lahman2019raw.people row. Column names
// follow the source CSV headers.
type Player struct {
	PlayerID  string `json:"playerID"`
	NameFirst string `json:"nameFirst"`
	NameLast  string `json:"nameLast"`
}

func PlayerFromRow(row map[string]string) Player {
	return Player{
		PlayerID:  row["playerID"],
		NameFirst: row["nameFirst"],
		NameLast:  row["nameLast"],
	}
}
