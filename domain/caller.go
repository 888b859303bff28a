package domain

type Caller struct {
	Admin  bool
	UserId string
	Email  string
}

type AuthenticateResponse struct {
	Authenticated bool
	ErrorReason   string
	Caller        *Caller
}
