package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/gophtodo/internal/server/models"
)

type itemsData struct {
	ListItems []*models.ListItem `json:"list_items"`
}

type itemData struct {
	ListItem *models.ListItem `json:"list_item"`
}

// itemPath parses the list id and, when withItem is set, the item id.
func itemPath(r *http.Request, withItem bool) (listID, itemID int64, err error) {
	if listID, err = pathID(r, "list_id"); err != nil {
		return 0, 0, err
	}
	if withItem {
		if itemID, err = pathID(r, "item_id"); err != nil {
			return 0, 0, err
		}
	}
	return listID, itemID, nil
}

// handleCreateItems expects a JSON array of item contents.
func (s *Server) handleCreateItems(w http.ResponseWriter, r *http.Request) {
	listID, _, err := itemPath(r, false)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var contents []string
	if err := decodeJSON(r, &contents); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	items, err := s.items.Create(r.Context(), currentUser(r).ID, listID, contents)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, "List items created successfully", itemsData{ListItems: items})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	listID, _, err := itemPath(r, false)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	q, err := parseQuery(r, "content")
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	page, err := s.items.Search(r.Context(), currentUser(r).ID, listID, q)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	message := "List items retrieved successfully"
	if len(page.Items) == 0 {
		message = "No list items were found within the specified list."
	}
	writeData(w, http.StatusOK, message, page)
}

func (s *Server) handleGetItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, err := itemPath(r, true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	item, err := s.items.Get(r.Context(), currentUser(r).ID, listID, itemID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "List item retrieved successfully", itemData{ListItem: item})
}

func (s *Server) handleUpdateItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, err := itemPath(r, true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	var upd models.ItemUpdate
	if err := decodeJSON(r, &upd); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	item, err := s.items.Update(r.Context(), currentUser(r).ID, listID, itemID, upd)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "List item updated successfully", itemData{ListItem: item})
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	listID, itemID, err := itemPath(r, true)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	if err := s.items.Delete(r.Context(), currentUser(r).ID, listID, itemID); err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeData(w, http.StatusOK, "List item deleted successfully", nil)
}
