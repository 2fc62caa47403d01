package forms

type CommentForm struct {
	Text string `form:"text" json:"text"`
}

func (f CommentForm) Validate() (string, Errors) {
	errs := Errors{}
	text := required(errs, "text", f.Text)
	return text, errs
}
