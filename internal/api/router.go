package api

import (
	"github.com/gorilla/mux"

	"github.com/paperdesk/paperdesk/internal/api/recovery"
	"github.com/paperdesk/paperdesk/internal/auth"
	"github.com/paperdesk/paperdesk/internal/searchindex"
	"github.com/paperdesk/paperdesk/internal/services"
	"github.com/paperdesk/paperdesk/internal/store"
)

// NewRouter wires all HTTP routes over the service layer.
func NewRouter(st store.Store, idx searchindex.Index, authorizer auth.Authorizer, maxCandidates int) *mux.Router {
	router := mux.NewRouter()
	router.Use(recovery.Middleware)

	paperSvc := services.NewPaperService(st, idx, maxCandidates)
	commentSvc := services.NewCommentService(st)
	groupSvc := services.NewGroupService(st)
	userSvc := services.NewUserService(st)

	healthHandler := NewHealthHandler()
	paperHandler := NewPaperHandler(paperSvc, authorizer)
	commentHandler := NewCommentHandler(commentSvc, authorizer)
	groupHandler := NewGroupHandler(groupSvc, authorizer)
	userHandler := NewUserHandler(userSvc)

	// Health
	router.HandleFunc("/api/health", healthHandler.CheckHealth).Methods("GET")

	// Papers and listing
	router.HandleFunc("/api/papers", paperHandler.ListPapers).Methods("GET")
	router.HandleFunc("/api/papers/{paperId}", paperHandler.GetPaper).Methods("GET")
	router.HandleFunc("/api/papers/{paperId}/groups", paperHandler.PaperGroups).Methods("GET")

	// Comments
	router.HandleFunc("/api/papers/{paperId}/comments", commentHandler.ListComments).Methods("GET")
	router.HandleFunc("/api/papers/{paperId}/comments", commentHandler.CreateComment).Methods("POST")
	router.HandleFunc("/api/comments/{commentId}", commentHandler.UpdateComment).Methods("PATCH")
	router.HandleFunc("/api/comments/{commentId}", commentHandler.DeleteComment).Methods("DELETE")
	router.HandleFunc("/api/comments/{commentId}/replies", commentHandler.AddReply).Methods("POST")

	// Library
	router.HandleFunc("/api/library", paperHandler.ListLibrary).Methods("GET")
	router.HandleFunc("/api/library/{paperId}/save", paperHandler.SaveToLibrary).Methods("POST")
	router.HandleFunc("/api/library/{paperId}/remove", paperHandler.RemoveFromLibrary).Methods("POST")

	// Groups
	router.HandleFunc("/api/groups", groupHandler.ListGroups).Methods("GET")
	router.HandleFunc("/api/groups", groupHandler.CreateGroup).Methods("POST")
	router.HandleFunc("/api/groups/{groupId}/join", groupHandler.JoinGroup).Methods("POST")
	router.HandleFunc("/api/groups/{groupId}/leave", groupHandler.LeaveGroup).Methods("POST")
	router.HandleFunc("/api/groups/{groupId}/papers/{paperId}", groupHandler.AddPaper).Methods("POST")
	router.HandleFunc("/api/groups/{groupId}/papers/{paperId}", groupHandler.RemovePaper).Methods("DELETE")

	// Users
	router.HandleFunc("/api/users", userHandler.CreateUser).Methods("POST")
	router.HandleFunc("/api/users/{userId}", userHandler.GetUser).Methods("GET")

	return router
}
