package get_availability

import (
	"time"

	"github.com/formadon/TDE-SchedulingService/internal/domain"
)

// catalogIndex предрасчитанные срезы каталога для агрегирования:
// тоталы и привязки к площадкам, с уже исключёнными always-available юнитами
type catalogIndex struct {
	trainerSites map[int64]map[domain.Site]bool
	unitSites    map[int64]map[domain.Site]bool
	rooms        map[int64]domain.Room
	exemptUnits  map[int64]bool

	totals map[domain.Site]kindTotals
}

type kindTotals struct {
	trainers int
	rooms    int
	units    int
}

// bookedSets наборы занятых ресурсов площадки за один день
// Set гарантирует, что событие занимает ресурс максимум один раз в день,
// сколько бы часов оно ни длилось
type bookedSets struct {
	trainers map[int64]bool
	rooms    map[int64]bool
	units    map[int64]bool
}

func newBookedSets() *bookedSets {
	return &bookedSets{
		trainers: make(map[int64]bool),
		rooms:    make(map[int64]bool),
		units:    make(map[int64]bool),
	}
}

// newCatalogIndex строит индекс каталога
// Мультиплощадочный ресурс входит в тотал каждой своей площадки
func newCatalogIndex(catalog *domain.ResourceCatalog, extraExemptUnitIDs []int64) *catalogIndex {
	idx := &catalogIndex{
		trainerSites: make(map[int64]map[domain.Site]bool),
		unitSites:    make(map[int64]map[domain.Site]bool),
		rooms:        make(map[int64]domain.Room),
		exemptUnits:  catalog.AlwaysAvailableUnitIDs(),
		totals:       make(map[domain.Site]kindTotals),
	}

	for _, id := range extraExemptUnitIDs {
		idx.exemptUnits[id] = true
	}

	for _, t := range catalog.Trainers {
		if !t.Active {
			continue
		}
		sites := make(map[domain.Site]bool, len(t.Sites))
		for _, site := range t.Sites {
			sites[site] = true
			totals := idx.totals[site]
			totals.trainers++
			idx.totals[site] = totals
		}
		idx.trainerSites[t.ID] = sites
	}

	for _, room := range catalog.Rooms {
		idx.rooms[room.ID] = room
		totals := idx.totals[room.Site]
		totals.rooms++
		idx.totals[room.Site] = totals
	}

	for _, u := range catalog.Units {
		if idx.exemptUnits[u.ID] {
			continue
		}
		sites := make(map[domain.Site]bool, len(u.Sites))
		for _, site := range u.Sites {
			sites[site] = true
			totals := idx.totals[site]
			totals.units++
			idx.totals[site] = totals
		}
		idx.unitSites[u.ID] = sites
	}

	return idx
}

// aggregate раскладывает события по дневным корзинам диапазона
//
// Ресурс помечается занятым только под площадками, которые он делит с
// эффективной площадкой события: мультиплощадочный преподаватель, занятый
// на севере, не блокирует юг
func aggregate(idx *catalogIndex, bookings []domain.ResolvedBooking, start time.Time, numDays int, loc *time.Location) []DayAvailability {
	booked := make([]map[domain.Site]*bookedSets, numDays)
	for i := range booked {
		booked[i] = make(map[domain.Site]*bookedSets)
	}

	dayStart := func(i int) time.Time {
		return time.Date(start.Year(), start.Month(), start.Day()+i, 0, 0, 0, 0, loc)
	}

	rangeStart := dayStart(0)
	rangeEnd := dayStart(numDays)

	for _, b := range bookings {
		window, ok := b.Window.ClipTo(rangeStart, rangeEnd)
		if !ok {
			continue
		}

		for i := 0; i < numDays; i++ {
			// полуоткрытые дневные границы: событие, заканчивающееся ровно
			// в полночь, не занимает следующий день
			if !window.Start.Before(dayStart(i+1)) || !window.End.After(dayStart(i)) {
				continue
			}
			markBooked(idx, booked[i], b)
		}
	}

	days := make([]DayAvailability, numDays)
	for i := 0; i < numDays; i++ {
		day := DayAvailability{
			Date:  dayStart(i).Format(domain.DateFormat),
			Sites: make([]SiteAvailability, 0, len(domain.CampusSites)),
		}

		for _, site := range domain.CampusSites {
			totals := idx.totals[site]
			sets := booked[i][site]
			if sets == nil {
				sets = newBookedSets()
			}

			day.Sites = append(day.Sites, SiteAvailability{
				Site:     string(site),
				Trainers: newKindAvailability(totals.trainers, len(sets.trainers)),
				Rooms:    newKindAvailability(totals.rooms, len(sets.rooms)),
				Units:    newKindAvailability(totals.units, len(sets.units)),
			})
		}

		days[i] = day
	}

	return days
}

// markBooked помечает ресурсы события занятыми в корзине дня
func markBooked(idx *catalogIndex, dayBuckets map[domain.Site]*bookedSets, b domain.ResolvedBooking) {
	mark := func(site domain.Site) *bookedSets {
		sets := dayBuckets[site]
		if sets == nil {
			sets = newBookedSets()
			dayBuckets[site] = sets
		}
		return sets
	}

	// Аудитория всегда занята под своей собственной площадкой
	if b.RoomID != nil {
		if room, ok := idx.rooms[*b.RoomID]; ok {
			mark(room.Site).rooms[room.ID] = true
		}
	}

	if !b.Site.IsCampus() {
		// in_company и неизвестные площадки не трогают кампусные пулы
		return
	}

	for _, id := range b.TrainerIDs {
		if idx.trainerSites[id][b.Site] {
			mark(b.Site).trainers[id] = true
		}
	}

	for _, id := range b.UnitIDs {
		if idx.exemptUnits[id] {
			continue
		}
		if idx.unitSites[id][b.Site] {
			mark(b.Site).units[id] = true
		}
	}
}

func newKindAvailability(total, booked int) KindAvailability {
	available := total - booked
	if available < 0 {
		available = 0
	}
	return KindAvailability{
		Total:     total,
		Booked:    booked,
		Available: available,
	}
}
