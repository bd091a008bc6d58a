package model

// Post is a row of the posts table. A Post with Published false is a draft.
type Post struct {
	ID        int32  `postboot:"id" db:"id" json:"id"`
	Title     string `db:"title" json:"title"`
	Body      string `db:"body" json:"body"`
	Published bool   `db:"published" json:"published"`
}

func (Post) GetTableName() string {
	return "posts"
}

// NewPost holds the columns written when a draft is created; id and
// published are left to the database.
type NewPost struct {
	Title string `db:"title"`
	Body  string `db:"body"`
}
