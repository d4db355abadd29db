package rest

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/dmitrijs2005/moodjournal/internal/common"
	"github.com/gin-gonic/gin"
)

type credentialsRequest struct {
	UserName string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token  string `json:"token"`
	AESKey string `json:"aesKey"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type profileResponse struct {
	UserName string `json:"username"`
}

type journalRequest struct {
	EncryptedText   string `json:"encryptedText" binding:"required,base64"`
	EncryptedVector string `json:"encryptedVector" binding:"required,base64"`
}

type entryResponse struct {
	ID              string    `json:"id"`
	EncryptedText   string    `json:"encryptedText"`
	EncryptedVector string    `json:"encryptedVector"`
	CreatedAt       time.Time `json:"createdAt"`
}

type historyResponse struct {
	Entries []entryResponse `json:"entries"`
}

type exportResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, errorResponse{
			Error:  "invalid request",
			Fields: fieldErrors(err),
		})
		return false
	}
	return true
}

func (s *RESTServer) ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "OK"})
}

func (s *RESTServer) signup(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := s.users.Register(c.Request.Context(), req.UserName, req.Password); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageResponse{Message: "user created successfully"})
}

func (s *RESTServer) login(c *gin.Context) {
	var req credentialsRequest
	if !bindJSON(c, &req) {
		return
	}

	sess, err := s.users.Authenticate(c.Request.Context(), req.UserName, req.Password)
	if err != nil {
		s.writeError(c, err)
		return
	}
	defer common.WipeByteArray(sess.Key)

	c.Set(ctxUserID, sess.UserID)
	c.JSON(http.StatusOK, loginResponse{
		Token:  sess.Token,
		AESKey: base64.StdEncoding.EncodeToString(sess.Key),
	})
}

func (s *RESTServer) profile(c *gin.Context) {
	user, err := s.users.Profile(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{UserName: user.UserName})
}

func (s *RESTServer) createEntry(c *gin.Context) {
	var req journalRequest
	if !bindJSON(c, &req) {
		return
	}

	if _, err := s.entries.Save(c.Request.Context(), c.GetString(ctxUserID), req.EncryptedText, req.EncryptedVector); err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, messageResponse{Message: "journal entry saved"})
}

func (s *RESTServer) history(c *gin.Context) {
	list, err := s.entries.ListByUser(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		s.writeError(c, err)
		return
	}

	resp := historyResponse{Entries: make([]entryResponse, 0, len(list))}
	for _, e := range list {
		resp.Entries = append(resp.Entries, entryResponse{
			ID:              e.ID,
			EncryptedText:   e.EncryptedText,
			EncryptedVector: e.EncryptedVector,
			CreatedAt:       e.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, resp)
}

func (s *RESTServer) exportHistory(c *gin.Context) {
	if s.opts.Archive == nil {
		s.writeError(c, common.ErrorNotConfigured)
		return
	}

	a, err := s.opts.Archive.Export(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, exportResponse{URL: a.URL, ExpiresAt: a.ExpiresAt})
}
