package httpapi

import (
	"net/http"

	tutorAuth "github.com/MrEthical07/tutorAuth"
	"github.com/MrEthical07/tutorAuth/middleware"
	"github.com/go-chi/chi/v5"
)

type registerBody struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	PhoneNo         string `json:"phoneNo"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// verifyBody accepts both spellings the clients send.
type verifyBody struct {
	Email   string `json:"email"`
	OTP     string `json:"otp"`
	OTPCode string `json:"otpCode"`
}

type emailBody struct {
	Email string `json:"email"`
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type googleBody struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	GoogleID     string `json:"googleId"`
	ProfilePic   string `json:"profilePic"`
	ProfileImage string `json:"profileImage"`
}

type resetBody struct {
	Password string `json:"password"`
}

// authHandler serves the routes shared by users and tutors.
type authHandler struct {
	engine Engine
	role   tutorAuth.Role
	oauth  *oauthHandler
}

func (h *authHandler) routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/register", h.register)
	r.Post("/verify-otp", h.verifyOTP)
	r.Post("/resend-otp", h.resendOTP)
	r.Post("/login", h.login)
	r.Post("/google-auth", h.googleAuth)
	r.Post("/forgot-password", h.forgotPassword)
	r.Post("/reset-password/{token}", h.resetPassword)
	if h.oauth != nil {
		r.Get("/google/login", h.oauth.start(h.role))
		r.Get("/google/callback", h.oauth.callback(h.role))
	}
	r.With(middleware.Guard(h.engine, h.role)).Get("/me", me)
	return r
}

func (h *authHandler) register(w http.ResponseWriter, r *http.Request) {
	var body registerBody
	if err := decode(r, &body); err != nil {
		writeError(w, h.role, err)
		return
	}

	p, err := h.engine.Register(r.Context(), h.role, tutorAuth.RegisterRequest{
		FullName:        body.Name,
		Email:           body.Email,
		Phone:           body.PhoneNo,
		Password:        body.Password,
		ConfirmPassword: body.ConfirmPassword,
	})
	if err != nil {
		writeError(w, h.role, err)
		return
	}
	writeOK(w, "OTP sent successfully to your email. Please verify to complete registration.", envelope{"email": p.Email})
}

func (h *authHandler) verifyOTP(w http.ResponseWriter, r *http.Request) {
	var body verifyBody
	if err := decode(r, &body); err != nil {
		writeError(w, h.role, err)
		return
	}
	code := body.OTP
	if code == "" {
		code = body.OTPCode
	}

	res, err := h.engine.VerifyOTP(r.Context(), h.role, body.Email, code)
	if err != nil {
		writeError(w, h.role, err)
		return
	}
	http.SetCookie(w, h.engine.RefreshCookie(res.RefreshToken))
	writeOK(w, "Email verified successfully", authBody(res))
}

func (h *authHandler) resendOTP(w http.ResponseWriter, r *http.Request) {
	var body emailBody
	if err := decode(r, &body); err != nil {
		writeError(w, h.role, err)
		return
	}
	if err := h.engine.ResendOTP(r.Context(), h.role, body.Email); err != nil {
		writeError(w, h.role, err)
		return
	}
	writeOK(w, "A new OTP has been sent to your email.", nil)
}

func (h *authHandler) login(w http.ResponseWriter, r *http.Request) {
	loginHandler(h.engine, h.role, "Login successful")(w, r)
}

func (h *authHandler) googleAuth(w http.ResponseWriter, r *http.Request) {
	var body googleBody
	if err := decode(r, &body); err != nil {
		writeError(w, h.role, err)
		return
	}
	image := body.ProfilePic
	if image == "" {
		image = body.ProfileImage
	}

	res, err := h.engine.GoogleAuth(r.Context(), h.role, tutorAuth.GoogleProfile{
		GoogleID:     body.GoogleID,
		Email:        body.Email,
		Name:         body.Name,
		ProfileImage: image,
	})
	if err != nil {
		writeError(w, h.role, err)
		return
	}
	http.SetCookie(w, h.engine.RefreshCookie(res.RefreshToken))
	writeOK(w, "Google login successful", authBody(res))
}

func (h *authHandler) forgotPassword(w http.ResponseWriter, r *http.Request) {
	var body emailBody
	if err := decode(r, &body); err != nil {
		writeError(w, h.role, err)
		return
	}
	if err := h.engine.RequestPasswordReset(r.Context(), h.role, body.Email); err != nil {
		writeError(w, h.role, err)
		return
	}
	writeOK(w, "Check your email for the password reset link", nil)
}

func (h *authHandler) resetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetBody
	if err := decode(r, &body); err != nil {
		writeError(w, h.role, err)
		return
	}
	token := chi.URLParam(r, "token")
	if err := h.engine.ConfirmPasswordReset(r.Context(), h.role, token, body.Password); err != nil {
		writeError(w, h.role, err)
		return
	}
	writeOK(w, "Password reset successful", nil)
}

func loginHandler(engine Engine, role tutorAuth.Role, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body loginBody
		if err := decode(r, &body); err != nil {
			writeError(w, role, err)
			return
		}
		res, err := engine.Login(r.Context(), role, body.Email, body.Password)
		if err != nil {
			writeError(w, role, err)
			return
		}
		http.SetCookie(w, engine.RefreshCookie(res.RefreshToken))
		writeOK(w, message, authBody(res))
	}
}

func me(w http.ResponseWriter, r *http.Request) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, "", tutorAuth.ErrUnauthorized)
		return
	}
	writeOK(w, "OK", envelope{p.Role.Slug(): principalView(p)})
}
