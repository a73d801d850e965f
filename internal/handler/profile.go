package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/oggyb/fall-in/internal/db"
	"github.com/oggyb/fall-in/internal/middleware"
	"github.com/oggyb/fall-in/internal/response"
	"github.com/oggyb/fall-in/internal/service/account"
)

func (h *Handler) GetMe(c *gin.Context) {
	me, err := h.accounts.Me(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, me)
}

// UpdateProfile reads a multipart form: name, age, pronouns, department, year,
// looking_for, bio, prompt_1..prompt_3 and an optional profile_photo file.
func (h *Handler) UpdateProfile(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.appCtx.Config.Upload.MaxBytes)

	if err := c.Request.ParseMultipartForm(h.appCtx.Config.Upload.MaxBytes); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Error(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "upload is too large")
			return
		}
		response.BadRequest(c, "invalid form")
		return
	}
	age, err := strconv.Atoi(strings.TrimSpace(c.PostForm("age")))
	if err != nil {
		response.BadRequest(c, "age must be a number")
		return
	}

	in := account.ProfileInput{
		Name:       c.PostForm("name"),
		Age:        age,
		Pronouns:   c.PostForm("pronouns"),
		Department: c.PostForm("department"),
		Year:       c.PostForm("year"),
		LookingFor: c.PostForm("looking_for"),
		Bio:        c.PostForm("bio"),
		Prompts:    make(map[string]string, len(db.ProfilePrompts)),
	}
	for i, q := range db.ProfilePrompts {
		in.Prompts[q] = c.PostForm("prompt_" + strconv.Itoa(i+1))
	}

	var photo *account.PhotoUpload
	if fh, err := c.FormFile("profile_photo"); err == nil && fh.Filename != "" {
		f, err := fh.Open()
		if err != nil {
			response.BadRequest(c, "could not read photo")
			return
		}
		defer f.Close()
		photo = &account.PhotoUpload{Filename: fh.Filename, Body: f}
	}

	me, err := h.accounts.UpdateProfile(c.Request.Context(), middleware.UserID(c), in, photo)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, me)
}

func (h *Handler) GetUser(c *gin.Context) {
	detail, err := h.accounts.PublicProfile(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, detail)
}

func (h *Handler) Discover(c *gin.Context) {
	users, err := h.accounts.Discover(c.Request.Context(), middleware.UserID(c), queryInt(c, "limit"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, users)
}
