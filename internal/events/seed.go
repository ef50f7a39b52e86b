package events

import "eventdash/internal/model"

// InitialEvents is the demo list the fallback store starts with.
func InitialEvents() []model.Event {
	return []model.Event{
		{
			ID: 1, AdminID: 1,
			Title:       "Reunião Executiva Q1 2026",
			Description: "Análise de resultados do primeiro trimestre e definição de metas estratégicas para o próximo período. Participação obrigatória de todos os diretores.",
			Date:        "15/01/2026", StartTime: "09:00", EndTime: "11:30",
			Location: "São Paulo, SP - Sede Central",
			ImageURL: "https://images.unsplash.com/photo-1557804506-669a67965ba0?w=800",
		},
		{
			ID: 2, AdminID: 1,
			Title:       "Workshop de Inovação Tecnológica",
			Description: "Sessão colaborativa para desenvolvimento de novas estratégias de produto e discussão de tendências tecnológicas do mercado.",
			Date:        "22/01/2026", StartTime: "14:00", EndTime: "18:00",
			Location: "Rio de Janeiro, RJ - Innovation Hub",
			ImageURL: "https://images.unsplash.com/photo-1552664730-d307ca884978?w=800",
		},
		{
			ID: 3, AdminID: 1,
			Title:       "Lançamento Produto Alpha",
			Description: "Apresentação oficial do novo produto Alpha para stakeholders, parceiros estratégicos e imprensa especializada.",
			Date:        "28/01/2026", StartTime: "19:00", EndTime: "22:00",
			Location: "Belo Horizonte, MG - Centro de Convenções",
			ImageURL: "https://images.unsplash.com/photo-1540575467063-178a50c2df87?w=800",
		},
		{
			ID: 4, AdminID: 1,
			Title:       "Treinamento Técnico - Equipe",
			Description: "Capacitação técnica intensiva sobre novas ferramentas, processos operacionais e metodologias ágeis.",
			Date:        "05/02/2026", StartTime: "08:00", EndTime: "17:00",
			Location: "Curitiba, PR - Centro de Treinamento",
			ImageURL: "https://images.unsplash.com/photo-1524178232363-1fb2b075b655?w=800",
		},
		{
			ID: 5, AdminID: 1,
			Title:       "Evento de Networking Executivo",
			Description: "Encontro exclusivo com líderes do setor para troca de experiências, discussão de cases de sucesso e oportunidades de parcerias.",
			Date:        "12/02/2026", StartTime: "18:30", EndTime: "22:30",
			Location: "Florianópolis, SC - Beach Hotel Resort",
			ImageURL: "https://images.unsplash.com/photo-1511578314322-379afb476865?w=800",
		},
		{
			ID: 6, AdminID: 1,
			Title:       "Revisão Estratégica Anual",
			Description: "Alinhamento de objetivos corporativos, definição de KPIs e planejamento estratégico com os times de liderança.",
			Date:        "19/02/2026", StartTime: "09:00", EndTime: "16:00",
			Location: "Porto Alegre, RS - Hotel Executive",
			ImageURL: "https://images.unsplash.com/photo-1556761175-5973dc0f32e7?w=800",
		},
		{
			ID: 7, AdminID: 1,
			Title:       "Conferência de Vendas 2026",
			Description: "Apresentação de resultados, premiação das melhores equipes e lançamento das campanhas do ano.",
			Date:        "26/02/2026", StartTime: "10:00", EndTime: "18:00",
			Location: "São Paulo, SP - Centro de Eventos",
			ImageURL: "https://images.unsplash.com/photo-1475721027785-f74eccf877e2?w=800",
		},
		{
			ID: 8, AdminID: 1,
			Title:       "Summit de Transformação Digital",
			Description: "Discussão sobre IA, automação e as novas tendências em transformação digital para o setor corporativo.",
			Date:        "05/03/2026", StartTime: "08:30", EndTime: "17:30",
			Location: "Brasília, DF - Centro Internacional",
			ImageURL: "https://images.unsplash.com/photo-1505373877841-8d25f7d46678?w=800",
		},
		{
			ID: 9, AdminID: 1,
			Title:       "Encontro de Desenvolvedores",
			Description: "Hackathon e workshops práticos sobre as mais recentes tecnologias e frameworks de desenvolvimento.",
			Date:        "12/03/2026", StartTime: "09:00", EndTime: "19:00",
			Location: "Recife, PE - Tech Park",
			ImageURL: "https://images.unsplash.com/photo-1517245386807-bb43f82c33c4?w=800",
		},
		{
			ID: 10, AdminID: 1,
			Title:       "Apresentação de Resultados Q1",
			Description: "Balanço financeiro do primeiro trimestre e projeções para os próximos meses. Exclusivo para acionistas.",
			Date:        "25/03/2026", StartTime: "15:00", EndTime: "17:00",
			Location: "São Paulo, SP - Auditório Corporativo",
			ImageURL: "https://images.unsplash.com/photo-1454165804606-c3d57bc86b40?w=800",
		},
	}
}
