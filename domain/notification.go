package domain

type SendError struct {
	Token  string `json:"token"`
	Status int    `json:"status"`
	Detail string `json:"detail"`
}

type SendOutcome struct {
	Success int         `json:"success"`
	Failure int         `json:"failure"`
	Errors  []SendError `json:"errors"`
}

func NewSendOutcome() *SendOutcome {
	return &SendOutcome{
		Errors: []SendError{},
	}
}

func (o *SendOutcome) AddSuccess() {
	o.Success++
}

func (o *SendOutcome) AddFailure(token string, status int, detail string) {
	o.Failure++
	o.Errors = append(o.Errors, SendError{
		Token:  token,
		Status: status,
		Detail: detail,
	})
}
