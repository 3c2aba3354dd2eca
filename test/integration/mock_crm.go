// Package integration contains end-to-end tests that run the full HTTP
// stack against an in-process mock of the CRM REST API.
package integration

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
)

// mockCRM is an in-memory stand-in for the CRM backend. It implements the
// object, search, association, property, and owner endpoints the service
// touches, including the 409 conflict on duplicate property creation.
type mockCRM struct {
	mu         sync.Mutex
	objects    map[string]map[string]map[string]string // objectType -> id -> properties
	properties map[string]map[string]map[string]any    // objectType -> name -> definition
	groups     map[string]map[string]bool              // objectType -> group name -> exists
	assocs     map[string][]string                     // fromType/fromID/toType -> toIDs
	owners     []map[string]string
	patchCount int
	failAll    bool

	server *httptest.Server
}

func newMockCRM() *mockCRM {
	m := &mockCRM{
		objects:    map[string]map[string]map[string]string{},
		properties: map[string]map[string]map[string]any{},
		groups:     map[string]map[string]bool{},
		assocs:     map[string][]string{},
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	return m
}

func (m *mockCRM) Close()      { m.server.Close() }
func (m *mockCRM) URL() string { return m.server.URL }

func (m *mockCRM) seedObject(objectType, id string, props map[string]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.objects[objectType] == nil {
		m.objects[objectType] = map[string]map[string]string{}
	}
	m.objects[objectType][id] = props
}

func (m *mockCRM) object(objectType, id string) map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.objects[objectType][id]
}

func (m *mockCRM) propertyNames(objectType string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var names []string
	for name := range m.properties[objectType] {
		names = append(names, name)
	}
	return names
}

func (m *mockCRM) patches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.patchCount
}

func (m *mockCRM) associations(fromType, fromID, toType string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.assocs[fromType+"/"+fromID+"/"+toType]
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func (m *mockCRM) handle(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.failAll {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "backend down"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	switch {
	case len(parts) >= 3 && parts[0] == "crm" && parts[1] == "v3" && parts[2] == "owners":
		m.handleOwners(w)
	case len(parts) >= 4 && parts[1] == "v3" && parts[2] == "properties":
		m.handleProperties(w, r, parts)
	case len(parts) >= 4 && parts[1] == "v4" && parts[2] == "objects":
		m.handleAssociations(w, r, parts)
	case len(parts) >= 4 && parts[1] == "v3" && parts[2] == "objects":
		m.handleObjects(w, r, parts)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such endpoint"})
	}
}

func (m *mockCRM) handleOwners(w http.ResponseWriter) {
	results := make([]any, 0, len(m.owners))
	for _, o := range m.owners {
		results = append(results, o)
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleObjects covers GET/PATCH /crm/v3/objects/{type}/{id} and
// POST /crm/v3/objects/{type}/search.
func (m *mockCRM) handleObjects(w http.ResponseWriter, r *http.Request, parts []string) {
	objectType := parts[3]

	if len(parts) == 5 && parts[4] == "search" && r.Method == http.MethodPost {
		var results []any
		for id, props := range m.objects[objectType] {
			results = append(results, map[string]any{"id": id, "properties": props})
		}
		writeJSON(w, http.StatusOK, map[string]any{"total": len(results), "results": results})
		return
	}

	if len(parts) != 5 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such endpoint"})
		return
	}
	id := parts[4]

	switch r.Method {
	case http.MethodGet:
		props, ok := m.objects[objectType][id]
		if !ok {
			writeJSON(w, http.StatusNotFound, map[string]string{"message": "object not found"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "properties": props})
	case http.MethodPatch:
		var payload struct {
			Properties map[string]string `json:"properties"`
		}
		json.NewDecoder(r.Body).Decode(&payload)
		if m.objects[objectType] == nil {
			m.objects[objectType] = map[string]map[string]string{}
		}
		if m.objects[objectType][id] == nil {
			m.objects[objectType][id] = map[string]string{}
		}
		for k, v := range payload.Properties {
			m.objects[objectType][id][k] = v
		}
		m.patchCount++
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "properties": m.objects[objectType][id]})
	default:
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"message": "method not allowed"})
	}
}

// handleProperties covers the schema sub-API.
func (m *mockCRM) handleProperties(w http.ResponseWriter, r *http.Request, parts []string) {
	objectType := parts[3]
	if m.properties[objectType] == nil {
		m.properties[objectType] = map[string]map[string]any{}
	}
	if m.groups[objectType] == nil {
		m.groups[objectType] = map[string]bool{}
	}

	switch {
	case len(parts) == 4 && r.Method == http.MethodGet:
		var results []any
		for _, def := range m.properties[objectType] {
			results = append(results, def)
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	case len(parts) == 4 && r.Method == http.MethodPost:
		var def map[string]any
		json.NewDecoder(r.Body).Decode(&def)
		name, _ := def["name"].(string)
		if _, exists := m.properties[objectType][name]; exists {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "property already exists"})
			return
		}
		m.properties[objectType][name] = def
		writeJSON(w, http.StatusCreated, def)
	case len(parts) == 5 && parts[4] == "groups" && r.Method == http.MethodPost:
		var def map[string]any
		json.NewDecoder(r.Body).Decode(&def)
		name, _ := def["name"].(string)
		if m.groups[objectType][name] {
			writeJSON(w, http.StatusConflict, map[string]string{"message": "group already exists"})
			return
		}
		m.groups[objectType][name] = true
		writeJSON(w, http.StatusCreated, def)
	case len(parts) == 5 && r.Method == http.MethodDelete:
		delete(m.properties[objectType], parts[4])
		w.WriteHeader(http.StatusNoContent)
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such endpoint"})
	}
}

// handleAssociations covers GET .../associations/{toType} and
// PUT .../associations/default/{toType}/{toID}.
func (m *mockCRM) handleAssociations(w http.ResponseWriter, r *http.Request, parts []string) {
	if len(parts) < 6 {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such endpoint"})
		return
	}
	fromType, fromID := parts[3], parts[4]

	switch {
	case r.Method == http.MethodGet && len(parts) == 7 && parts[5] == "associations":
		toType := parts[6]
		var results []any
		for _, toID := range m.assocs[fromType+"/"+fromID+"/"+toType] {
			results = append(results, map[string]any{"toObjectId": toID})
		}
		writeJSON(w, http.StatusOK, map[string]any{"results": results})
	case r.Method == http.MethodPut && len(parts) == 9 && parts[5] == "associations" && parts[6] == "default":
		toType, toID := parts[7], parts[8]
		key := fromType + "/" + fromID + "/" + toType
		for _, existing := range m.assocs[key] {
			if existing == toID {
				writeJSON(w, http.StatusConflict, map[string]string{"message": "association already exists"})
				return
			}
		}
		m.assocs[key] = append(m.assocs[key], toID)
		writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "no such endpoint"})
	}
}
