package http

import (
	"net/http"

	"aguin/internal/core"
	"aguin/internal/services"
)

// adminPage renders an admin list page, or a 500 when loading failed.
func (s *Server) adminPage(w http.ResponseWriter, r *http.Request, name, title string, data any, err error) {
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "No se pudo cargar la información", err)
		return
	}
	s.render(w, r, http.StatusOK, name, layoutSite, s.page(w, r, title, name, data))
}

// mutate parses the form and the optional {id}, then runs fn and finishes
// with the outcome.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, back, success, failure string, needID bool, fn func(id int64) error) {
	if err := parseForm(w, r); err != nil {
		s.finish(w, r, back, &core.ValidationError{Field: "formulario", Message: "Formulario inválido"}, "", failure)
		return
	}
	var id int64
	if needID {
		var err error
		if id, err = pathID(r); err != nil {
			s.finish(w, r, back, err, "", failure)
			return
		}
	}
	s.finish(w, r, back, fn(id), success, failure)
}

// Reservations

type reservationsView struct {
	Rows    []services.ReservationRow
	Pending []services.ReservationRow
}

func (s *Server) handleReservations(w http.ResponseWriter, r *http.Request) {
	rows, err := s.deps.Reservations.List(r.Context())
	s.adminPage(w, r, "admin_reservas", "Reservas", reservationsView{Rows: rows, Pending: services.Pending(rows)}, err)
}

func (s *Server) handleCreateReservation(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/reservas", "Reserva creada correctamente.", "No se pudo crear la reserva.", false, func(int64) error {
		_, err := s.deps.Reservations.Create(r.Context(), services.ReservationForm{
			FullName:      formValue(r, "nombre"),
			Phone:         formValue(r, "telefono"),
			Comments:      formValue(r, "comentarios"),
			RequestedDate: formValue(r, "fecha"),
			Status:        formValue(r, "estado"),
		})
		return err
	})
}

func (s *Server) handleUpdateReservation(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/reservas", "Reserva actualizada correctamente.", "No se pudo actualizar la reserva.", true, func(id int64) error {
		return s.deps.Reservations.Update(r.Context(), id, services.ReservationEdit{
			Comments:      formValue(r, "comentarios"),
			RequestedDate: formValue(r, "fecha"),
			Status:        formValue(r, "estado"),
		})
	})
}

func (s *Server) handleReservationStatus(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/reservas", "Estado actualizado correctamente.", "No se pudo actualizar el estado.", true, func(id int64) error {
		return s.deps.Reservations.SetStatus(r.Context(), id, formValue(r, "estado"))
	})
}

func (s *Server) handleDeleteReservation(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/reservas", "Reserva eliminada correctamente.", "No se pudo eliminar la reserva seleccionada.", true, func(id int64) error {
		return s.deps.Reservations.Delete(r.Context(), id)
	})
}

// Clients

func (s *Server) handleClients(w http.ResponseWriter, r *http.Request) {
	clients, err := s.deps.Directory.Clients(r.Context())
	s.adminPage(w, r, "admin_clientes", "Clientes", clients, err)
}

func clientForm(r *http.Request) services.ClientForm {
	return services.ClientForm{
		FullName: formValue(r, "nombre"),
		Phone:    formValue(r, "telefono"),
		Email:    formValue(r, "correo"),
	}
}

func (s *Server) handleCreateClient(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/clientes", "Cliente creado correctamente.", "No se pudo crear el cliente.", false, func(int64) error {
		_, err := s.deps.Directory.CreateClient(r.Context(), clientForm(r))
		return err
	})
}

func (s *Server) handleUpdateClient(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/clientes", "Cliente actualizado correctamente.", "No se pudo actualizar el cliente.", true, func(id int64) error {
		return s.deps.Directory.UpdateClient(r.Context(), id, clientForm(r))
	})
}

func (s *Server) handleDeleteClient(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/clientes", "Cliente eliminado correctamente.", "No se pudo eliminar el cliente seleccionado.", true, func(id int64) error {
		return s.deps.Directory.DeleteClient(r.Context(), id)
	})
}

// Photographers

func (s *Server) handlePhotographers(w http.ResponseWriter, r *http.Request) {
	list, err := s.deps.Directory.Photographers(r.Context())
	s.adminPage(w, r, "admin_fotografos", "Fotógrafos", list, err)
}

func photographerForm(r *http.Request) services.PhotographerForm {
	return services.PhotographerForm{
		FullName:  formValue(r, "nombre"),
		Phone:     formValue(r, "telefono"),
		Email:     formValue(r, "correo"),
		Specialty: formValue(r, "especialidad"),
		Status:    formValue(r, "estado"),
	}
}

func (s *Server) handleCreatePhotographer(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/fotografos", "Fotógrafo registrado correctamente.", "No se pudo registrar el fotógrafo.", false, func(int64) error {
		_, err := s.deps.Directory.CreatePhotographer(r.Context(), photographerForm(r))
		return err
	})
}

func (s *Server) handleUpdatePhotographer(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/fotografos", "Fotógrafo actualizado correctamente.", "No se pudo actualizar el fotógrafo.", true, func(id int64) error {
		return s.deps.Directory.UpdatePhotographer(r.Context(), id, photographerForm(r))
	})
}

func (s *Server) handleDeletePhotographer(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, "/admin/fotografos", "Fotógrafo eliminado correctamente.", "No se pudo eliminar el fotógrafo seleccionado.", true, func(id int64) error {
		return s.deps.Directory.DeletePhotographer(r.Context(), id)
	})
}
