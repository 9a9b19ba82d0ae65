package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type createListRequest struct {
	Name      string   `json:"name"`
	ListItems []string `json:"list_items"`
}

type listData struct {
	List *listDetail `json:"list"`
}

// listDetail always carries list_items, empty or not.
type listDetail struct {
	*models.List
	Items []*models.ListItem `json:"list_items"`
}

func newListData(list *models.List) listData {
	items := list.Items
	if items == nil {
		items = []*models.ListItem{}
	}
	return listData{List: &listDetail{List: list, Items: items}}
}

type listSummaryData struct {
	List *models.List `json:"list"`
}

func (s *Server) handleCreateList(w http.ResponseWriter, r *http.Request) {
	var req createListRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list, err := s.lists.Create(r.Context(), currentUser(r).ID, req.Name, req.ListItems)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, "List created successfully", newListData(list))
}

func (s *Server) handleListLists(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r, "name")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	page, err := s.lists.Search(r.Context(), currentUser(r).ID, q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	message := "Lists retrieved successfully"
	if len(page.Lists) == 0 {
		message = "There are no lists."
	}
	writeData(w, http.StatusOK, message, page)
}

func (s *Server) handleGetList(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "list_id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list, err := s.lists.Get(r.Context(), currentUser(r).ID, listID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "List retrieved successfully", newListData(list))
}

func (s *Server) handleUpdateList(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "list_id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var upd models.ListUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	list, err := s.lists.Update(r.Context(), currentUser(r).ID, listID, upd)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "List updated successfully", listSummaryData{List: list})
}

func (s *Server) handleDeleteList(w http.ResponseWriter, r *http.Request) {
	listID, err := pathID(r, "list_id")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.lists.Delete(r.Context(), currentUser(r).ID, listID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "List deleted successfully", nil)
}
