package team

// Team is a KBO club. Its id doubles as the team ranking scope.
type Team struct {
	ID        int64  `gorm:"primarykey" json:"id"`
	Name      string `gorm:"not null;uniqueIndex" json:"name"`
	ShortName string `gorm:"not null" json:"shortName"`
}

// defaultTeams is seeded into an empty teams table.
var defaultTeams = []Team{
	{ID: 1, Name: "KIA Tigers", ShortName: "KIA"},
	{ID: 2, Name: "Samsung Lions", ShortName: "Samsung"},
	{ID: 3, Name: "LG Twins", ShortName: "LG"},
	{ID: 4, Name: "Doosan Bears", ShortName: "Doosan"},
	{ID: 5, Name: "KT Wiz", ShortName: "KT"},
	{ID: 6, Name: "SSG Landers", ShortName: "SSG"},
	{ID: 7, Name: "Lotte Giants", ShortName: "Lotte"},
	{ID: 8, Name: "Hanwha Eagles", ShortName: "Hanwha"},
	{ID: 9, Name: "NC Dinos", ShortName: "NC"},
	{ID: 10, Name: "Kiwoom Heroes", ShortName: "Kiwoom"},
}
